// Package events defines the typed contract between a live transport and
// the session that consumes it.
//
// A transport translates whatever its provider sends into these events and
// delivers them in arrival order. Kinds are grouped by namespace:
//
//   - transcription.*
//   - response.*
//   - turn.*
//   - transport.*
//
// Semantics used across the package:
//
//   - Delta: append-only text piece, concatenated verbatim by the receiver.
//   - Chunk: opaque encoded audio, played in arrival order.
//   - Boundary: marks the end of a phase and carries no payload.
//
// transcription events
//
//   - InputTranscription (transcription.input): delta of what the user said.
//   - OutputTranscription (transcription.output): delta of what the tutor
//     said.
//
// response events
//
//   - AudioChunk (response.audio): encoded tutor audio with its MIME type.
//
// turn events
//
//   - TurnComplete (turn.complete): the tutor finished responding.
//   - Interrupted (turn.interrupted): the user barged in; queued tutor audio
//     is stale.
//
// transport events
//
//   - TransportError (transport.error): the connection failed mid-session.
//   - TransportClosed (transport.closed): the remote end closed the
//     connection.
package events
