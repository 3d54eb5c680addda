package events

const (
	// KindInputTranscription identifies user transcription deltas.
	KindInputTranscription Kind = "transcription.input"
	// KindOutputTranscription identifies tutor transcription deltas.
	KindOutputTranscription Kind = "transcription.output"
	// KindAudioChunk identifies encoded tutor audio.
	KindAudioChunk Kind = "response.audio"
	// KindTurnComplete identifies the end of a tutor turn.
	KindTurnComplete Kind = "turn.complete"
	// KindInterrupted identifies a user barge-in.
	KindInterrupted Kind = "turn.interrupted"
	// KindTransportError identifies a mid-session connection failure.
	KindTransportError Kind = "transport.error"
	// KindTransportClosed identifies a remote close.
	KindTransportClosed Kind = "transport.closed"
)

// InputTranscription carries a delta of the user's speech.
type InputTranscription struct {
	Base
	Text string
}

// NewInputTranscription creates a user transcription delta event.
func NewInputTranscription(text string) InputTranscription {
	return InputTranscription{Base: NewBase(KindInputTranscription), Text: text}
}

// OutputTranscription carries a delta of the tutor's speech.
type OutputTranscription struct {
	Base
	Text string
}

// NewOutputTranscription creates a tutor transcription delta event.
func NewOutputTranscription(text string) OutputTranscription {
	return OutputTranscription{Base: NewBase(KindOutputTranscription), Text: text}
}

// AudioChunk carries encoded tutor audio.
type AudioChunk struct {
	Base
	Payload  []byte
	MIMEType string
}

// NewAudioChunk creates a tutor audio event.
func NewAudioChunk(payload []byte, mimeType string) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Payload: payload, MIMEType: mimeType}
}

// TurnComplete marks the end of a tutor turn.
type TurnComplete struct{ Base }

// NewTurnComplete creates a turn complete event.
func NewTurnComplete() TurnComplete {
	return TurnComplete{Base: NewBase(KindTurnComplete)}
}

// Interrupted marks a user barge-in.
type Interrupted struct{ Base }

// NewInterrupted creates an interrupted event.
func NewInterrupted() Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted)}
}

// TransportError carries a connection failure.
type TransportError struct {
	Base
	Err error
}

// NewTransportError creates a transport error event.
func NewTransportError(err error) TransportError {
	return TransportError{Base: NewBase(KindTransportError), Err: err}
}

// TransportClosed marks a remote close.
type TransportClosed struct {
	Base
	Reason string
}

// NewTransportClosed creates a transport closed event.
func NewTransportClosed(reason string) TransportClosed {
	return TransportClosed{Base: NewBase(KindTransportClosed), Reason: reason}
}
