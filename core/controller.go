package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/audio/codec"
	"github.com/koscakluka/ema-live/core/tutors"
	"github.com/koscakluka/ema-live/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultOutboundQueueSize = 32
	defaultConnectTimeout    = 15 * time.Second
	controllerInboxCapacity  = 64
)

// Session describes the controller's current or most recent session.
type Session struct {
	ID        string
	State     State
	Profile   tutors.Profile
	CreatedAt time.Time
}

// Controller owns at most one live session at a time and drives it through
// Idle, Connecting, Active, Closing and Closed. All session state is owned
// by a single event loop goroutine; the exported methods only post requests
// to it.
type Controller struct {
	transport   Transport
	audioInput  AudioInput
	audioOutput AudioOutput
	newDecoder  DecoderFactory

	emitter *observerEmitter
	logger  *slog.Logger
	metrics *metrics.Collector

	frameSize         int
	outboundQueueSize int
	connectTimeout    time.Duration

	inbox   chan controllerMessage
	closeCh chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	closed    bool
	postMu    sync.RWMutex

	// state, session and generation are only touched by the event loop.
	state      State
	session    *session
	generation uint64

	snapshot   Session
	hasSession bool
	snapshotMu sync.RWMutex
	transcript atomic.Pointer[TranscriptAggregator]
}

func newPCMDecoder() (Decoder, error) {
	return codec.NewPCM16(audio.DefaultOutputSampleRate), nil
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		newDecoder:        newPCMDecoder,
		emitter:           newObserverEmitter(),
		logger:            logger,
		frameSize:         audio.DefaultFrameSize,
		outboundQueueSize: defaultOutboundQueueSize,
		connectTimeout:    defaultConnectTimeout,
		inbox:             make(chan controllerMessage, controllerInboxCapacity),
		closeCh:           make(chan struct{}),
		done:              make(chan struct{}),
		state:             StateIdle,
		snapshot:          Session{State: StateIdle},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.emitter.start()
	go c.run()
	return c
}

// Start opens a new session for profile and blocks until it is Active or
// has failed. It is only allowed from Idle or Closed; any other state
// returns ErrInvalidState without side effects.
func (c *Controller) Start(ctx context.Context, profile tutors.Profile) error {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()
	span.SetAttributes(attribute.String("tutor.id", profile.ID))

	reply := make(chan error, 1)
	if !c.post(nil, startRequest{ctx: ctx, profile: profile, reply: reply}) {
		return ErrControllerClosed
	}

	var err error
	select {
	case err = <-reply:
	case <-c.done:
		err = ErrControllerClosed
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Stop ends the current session, if any, and blocks until every session
// resource has been released. It is idempotent.
func (c *Controller) Stop(ctx context.Context) error {
	_, span := tracer.Start(ctx, "stop session")
	defer span.End()

	reply := make(chan error, 1)
	if !c.post(nil, stopRequest{reply: reply}) {
		return nil
	}

	select {
	case err := <-reply:
		return err
	case <-c.done:
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("stop did not complete: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
}

// Close stops any live session, terminates the event loop and flushes
// pending observer callbacks. Start fails with ErrControllerClosed
// afterwards.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		_ = c.Stop(context.Background())

		c.postMu.Lock()
		c.closed = true
		c.postMu.Unlock()

		close(c.closeCh)
		<-c.done
		c.emitter.close()
	})
}

func (c *Controller) State() State {
	c.snapshotMu.RLock()
	defer c.snapshotMu.RUnlock()
	return c.snapshot.State
}

// Session returns the current or most recent session. ok is false before
// the first Start.
func (c *Controller) Session() (session Session, ok bool) {
	c.snapshotMu.RLock()
	defer c.snapshotMu.RUnlock()
	return c.snapshot, c.hasSession
}

// Transcript returns the utterances of the current or most recent session.
func (c *Controller) Transcript() []Utterance {
	aggregator := c.transcript.Load()
	if aggregator == nil {
		return nil
	}
	return aggregator.History()
}

func (c *Controller) validateCollaborators() error {
	switch {
	case c.transport == nil:
		return fmt.Errorf("%w: no transport configured", ErrInvalidState)
	case c.audioInput == nil:
		return fmt.Errorf("%w: no audio input configured", ErrInvalidState)
	case c.audioOutput == nil:
		return fmt.Errorf("%w: no audio output configured", ErrInvalidState)
	}
	return nil
}

// transition moves the loop to state to and notifies observers.
func (c *Controller) transition(to State, message string) {
	from := c.state
	c.state = to

	c.snapshotMu.Lock()
	c.snapshot.State = to
	if c.session != nil {
		c.snapshot.ID = c.session.id
		c.snapshot.Profile = c.session.profile
		c.snapshot.CreatedAt = c.session.createdAt
		c.hasSession = true
	}
	c.snapshotMu.Unlock()

	attrs := []any{slog.String("from", from.String()), slog.String("to", to.String())}
	if c.session != nil {
		attrs = append(attrs, slog.String("session_id", c.session.id))
	}
	c.logger.Info("session state changed", attrs...)
	c.metrics.RecordTransition(from.String(), to.String())
	c.emitter.statusChanged(to, message)
}

// notify reports a status message without changing state.
func (c *Controller) notify(message string) {
	c.emitter.statusChanged(c.state, message)
}
