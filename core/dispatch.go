package live

import (
	"errors"
	"log/slog"

	"github.com/koscakluka/ema-live/core/events"
)

// dispatch routes one inbound event of an Active session. Events are
// handled strictly in arrival order.
func (c *Controller) dispatch(sess *session, event events.Event) {
	switch event := event.(type) {
	case nil:
		return

	case events.InputTranscription:
		sess.transcript.AppendInput(event.Text)

	case events.OutputTranscription:
		sess.transcript.AppendOutput(event.Text)
		if !sess.responding {
			sess.responding = true
			c.notify(statusResponding(sess.profile.Name))
		}

	case events.AudioChunk:
		if _, err := sess.scheduler.Enqueue(event.Payload, event.MIMEType); err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				c.logger.Warn("dropping undecodable audio chunk",
					slog.String("session_id", sess.id),
					slog.String("mime_type", event.MIMEType),
					slog.Int("bytes", len(event.Payload)),
					slog.Any("error", err))
				return
			}
			c.logger.Warn("dropping audio chunk", slog.String("session_id", sess.id), slog.Any("error", err))
		}

	case events.TurnComplete:
		emitted := sess.transcript.CompleteTurn(sess.turn)
		for _, utterance := range emitted {
			c.metrics.RecordUtterance(string(utterance.Speaker))
		}
		sess.turn++
		sess.responding = false
		c.metrics.RecordTurnCompleted()
		if len(emitted) > 0 {
			c.emitter.transcriptUpdated(sess.transcript.History())
		}
		c.notify(statusTurnComplete)

	case events.Interrupted:
		flushed := sess.scheduler.Flush()
		sess.responding = false
		c.metrics.RecordInterruption()
		c.logger.Debug("interrupted", slog.String("session_id", sess.id), slog.Int("flushed_sources", flushed))
		c.notify(statusInterrupted)

	case events.TransportError:
		c.fail(sess, &TransportError{Op: "receive", Err: event.Err}, statusConnectionErr)

	case events.TransportClosed:
		c.logger.Info("remote closed the session", slog.String("session_id", sess.id), slog.String("reason", event.Reason))
		c.stopSession(sess)

	default:
		c.logger.Debug("ignoring unsupported event", slog.String("kind", string(event.Kind())))
	}
}
