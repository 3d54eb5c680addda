package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// session holds everything one Start acquires. Fields are owned by the
// controller's event loop.
type session struct {
	id         string
	generation uint64
	profile    tutors.Profile
	createdAt  time.Time

	ctx  context.Context
	span trace.Span

	// done is closed when cleanup begins; late session-scoped posts give
	// up on it instead of blocking.
	done          chan struct{}
	cancelConnect context.CancelFunc
	startReply    chan error

	handle TransportHandle
	output PlaybackDevice
	mic    Microphone

	capture      *capturePipeline
	sender       *errgroup.Group
	cancelSender context.CancelFunc
	scheduler    *PlaybackScheduler
	transcript   *TranscriptAggregator

	turn       int
	responding bool
	early      []events.Event

	cleanupOnce sync.Once
}

func newSession(generation uint64, profile tutors.Profile) *session {
	id := uuid.NewString()
	ctx, span := tracer.Start(context.Background(), "live session", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("tutor.id", profile.ID),
		attribute.String("tutor.voice", profile.Voice.Name),
	))

	return &session{
		id:         id,
		generation: generation,
		profile:    profile,
		createdAt:  time.Now(),
		ctx:        ctx,
		span:       span,
		done:       make(chan struct{}),
		transcript: NewTranscriptAggregator(),
		turn:       1,
	}
}

func (s *session) replyStart(err error) {
	if s.startReply == nil {
		return
	}
	s.startReply <- err
	s.startReply = nil
}

// connect runs off the event loop: it opens the transport, then the output
// device, then the microphone, and posts whatever it got back to the loop.
func (c *Controller) connect(ctx context.Context, sess *session) {
	ctx, span := tracer.Start(trace.ContextWithSpan(ctx, sess.span), "connect session")
	defer span.End()

	res := connectResult{session: sess}
	defer func() {
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
		}
		if !c.post(nil, res) {
			c.releaseConnectResult(res)
		}
	}()

	handle, err := c.transport.Open(ctx, sess.profile, func(event events.Event) {
		c.postSession(sess, inboundEvent{session: sess, event: event})
	})
	if err != nil {
		res.err = &TransportError{Op: "open", Err: err}
		return
	}
	res.handle = handle

	output, err := c.audioOutput.OpenPlayback(ctx)
	if err != nil {
		res.err = &ResourceError{Resource: "output device", Err: err}
		return
	}
	res.output = output

	mic, err := c.audioInput.AcquireMicrophone(ctx)
	if err != nil {
		res.err = &ResourceError{Resource: "microphone", Err: err}
		return
	}
	res.mic = mic
}

// activate wires capture and playback for an opened session. The
// microphone is started last, so a failure here never reaches Active.
func (c *Controller) activate(sess *session) error {
	decoder, err := c.newDecoder()
	if err != nil {
		return &ResourceError{Resource: "audio decoder", Err: err}
	}

	sess.scheduler = NewPlaybackScheduler(sess.output, decoder, func(id audio.SourceID) {
		c.postSession(sess, sourceEnded{session: sess, id: id})
	}, c.logger, c.metrics)

	sess.capture = newCapturePipeline(c.audioInput.EncodingInfo(), c.frameSize, c.outboundQueueSize, c.logger, c.metrics)

	senderCtx, cancel := context.WithCancel(sess.ctx)
	group, groupCtx := errgroup.WithContext(senderCtx)
	sess.sender, sess.cancelSender = group, cancel

	handle, capture := sess.handle, sess.capture
	group.Go(func() error {
		err := capture.run(groupCtx, handle)
		if err != nil {
			c.postSession(sess, senderFailed{session: sess, err: err})
		}
		return err
	})

	if err := sess.mic.Start(capture.Write); err != nil {
		return &ResourceError{Resource: "microphone", Err: err}
	}
	return nil
}

// stopSession is the orderly path: Closing, cleanup, Closed.
func (c *Controller) stopSession(sess *session) {
	c.transition(StateClosing, statusClosing)
	c.cleanup(sess)
	c.finish(sess, "closed")
	sess.replyStart(ErrSessionStopped)
}

// fail is the error path: Errored, cleanup, Closed.
func (c *Controller) fail(sess *session, err error, message string) {
	c.logger.Error("session failed", slog.String("session_id", sess.id), slog.Any("error", err))
	sess.span.RecordError(err)
	sess.span.SetStatus(codes.Error, err.Error())

	c.transition(StateErrored, message)
	c.emitter.errorRaised(message)
	c.cleanup(sess)
	c.finish(sess, "errored")
	sess.replyStart(err)
}

func (c *Controller) finish(sess *session, outcome string) {
	c.transition(StateClosed, statusSessionEnded)
	c.metrics.RecordSessionEnded(outcome, time.Since(sess.createdAt))
	sess.span.SetAttributes(attribute.String("session.outcome", outcome))
	sess.span.End()
}

// cleanup releases every resource the session holds, exactly once, in
// order: microphone, sender, playback sources, output device, transport,
// and finally waits for the sender to exit.
func (c *Controller) cleanup(sess *session) {
	sess.cleanupOnce.Do(func() {
		_, span := tracer.Start(sess.ctx, "cleanup session")
		defer span.End()

		close(sess.done)
		if sess.cancelConnect != nil {
			sess.cancelConnect()
		}

		var errs []error
		if sess.mic != nil {
			if err := sess.mic.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop microphone: %w", err))
			}
			if err := sess.mic.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close microphone: %w", err))
			}
			sess.mic = nil
		}

		if sess.capture != nil {
			sess.capture.Close()
		}
		if sess.cancelSender != nil {
			sess.cancelSender()
		}

		if sess.scheduler != nil {
			sess.scheduler.Flush()
		}
		if sess.output != nil {
			if err := sess.output.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close output device: %w", err))
			}
			sess.output = nil
		}

		if sess.handle != nil {
			if err := sess.handle.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
			}
			sess.handle = nil
		}

		if sess.sender != nil {
			_ = sess.sender.Wait()
			sess.sender = nil
		}

		if err := errors.Join(errs...); err != nil {
			c.logger.Warn("session cleanup incomplete", slog.String("session_id", sess.id), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	})
}
