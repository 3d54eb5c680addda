package live

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
)

type controllerMessage interface {
	controllerMessage()
}

type startRequest struct {
	ctx     context.Context
	profile tutors.Profile
	reply   chan error
}

type stopRequest struct {
	reply chan error
}

// connectResult carries whatever the connect goroutine managed to acquire,
// so the loop can either adopt or release it.
type connectResult struct {
	session *session
	handle  TransportHandle
	output  PlaybackDevice
	mic     Microphone
	err     error
}

type inboundEvent struct {
	session *session
	event   events.Event
}

type sourceEnded struct {
	session *session
	id      audio.SourceID
}

type senderFailed struct {
	session *session
	err     error
}

func (startRequest) controllerMessage()  {}
func (stopRequest) controllerMessage()   {}
func (connectResult) controllerMessage() {}
func (inboundEvent) controllerMessage()  {}
func (sourceEnded) controllerMessage()   {}
func (senderFailed) controllerMessage()  {}

func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case <-c.closeCh:
			if c.state.IsLive() && c.session != nil {
				c.stopSession(c.session)
			}
			c.drain()
			return
		case msg := <-c.inbox:
			c.handle(msg)
		}
	}
}

// post hands msg to the event loop. It gives up when the controller is
// closed or, for session-scoped messages, when done is closed.
func (c *Controller) post(done <-chan struct{}, msg controllerMessage) bool {
	c.postMu.RLock()
	defer c.postMu.RUnlock()
	if c.closed {
		return false
	}

	select {
	case c.inbox <- msg:
		return true
	case <-done:
		return false
	}
}

func (c *Controller) postSession(sess *session, msg controllerMessage) bool {
	return c.post(sess.done, msg)
}

func (c *Controller) handle(msg controllerMessage) {
	switch msg := msg.(type) {
	case startRequest:
		c.handleStart(msg)
	case stopRequest:
		c.handleStop(msg)
	case connectResult:
		c.handleConnectResult(msg)
	case inboundEvent:
		c.handleInbound(msg)
	case sourceEnded:
		if msg.session == c.session && msg.session.scheduler != nil {
			msg.session.scheduler.SourceEnded(msg.id)
		}
	case senderFailed:
		if msg.session == c.session && c.state == StateActive {
			c.fail(msg.session, msg.err, statusConnectionErr)
		}
	}
}

func (c *Controller) handleStart(msg startRequest) {
	if !c.state.CanStart() {
		msg.reply <- fmt.Errorf("%w: cannot start while %s", ErrInvalidState, c.state)
		return
	}
	if err := c.validateCollaborators(); err != nil {
		msg.reply <- err
		return
	}
	if err := msg.profile.Validate(); err != nil {
		msg.reply <- err
		return
	}

	c.generation++
	sess := newSession(c.generation, msg.profile)
	sess.startReply = msg.reply
	c.session = sess
	c.transcript.Store(sess.transcript)

	var connectCtx context.Context
	if c.connectTimeout > 0 {
		connectCtx, sess.cancelConnect = context.WithTimeout(msg.ctx, c.connectTimeout)
	} else {
		connectCtx, sess.cancelConnect = context.WithCancel(msg.ctx)
	}

	c.transition(StateConnecting, statusConnecting(sess.profile.Name))
	go c.connect(connectCtx, sess)
}

func (c *Controller) handleStop(msg stopRequest) {
	switch c.state {
	case StateIdle:
		c.transition(StateClosing, statusClosing)
		c.transition(StateClosed, statusSessionEnded)
	case StateConnecting, StateActive:
		c.stopSession(c.session)
	}
	msg.reply <- nil
}

func (c *Controller) handleConnectResult(res connectResult) {
	sess := res.session
	if sess != c.session || c.state != StateConnecting {
		c.logger.Debug("releasing resources of a superseded connection", slog.String("session_id", sess.id))
		c.releaseConnectResult(res)
		return
	}

	sess.handle, sess.output, sess.mic = res.handle, res.output, res.mic
	if res.err != nil {
		c.fail(sess, res.err, statusConnectFailed)
		return
	}

	if err := c.activate(sess); err != nil {
		c.fail(sess, err, statusConnectFailed)
		return
	}

	c.transition(StateActive, statusConnected)
	sess.replyStart(nil)

	early := sess.early
	sess.early = nil
	for _, event := range early {
		if c.session != sess || c.state != StateActive {
			return
		}
		c.dispatch(sess, event)
	}
}

func (c *Controller) handleInbound(msg inboundEvent) {
	sess := msg.session
	if sess != c.session {
		return
	}

	switch c.state {
	case StateConnecting:
		switch event := msg.event.(type) {
		case events.TransportError:
			c.fail(sess, &TransportError{Op: "open", Err: event.Err}, statusConnectFailed)
		case events.TransportClosed:
			c.fail(sess, &TransportError{Op: "open", Err: fmt.Errorf("closed by remote: %s", event.Reason)}, statusConnectFailed)
		default:
			sess.early = append(sess.early, msg.event)
		}
	case StateActive:
		c.dispatch(sess, msg.event)
	}
}

// drain answers whatever is still queued once the loop is shutting down.
func (c *Controller) drain() {
	for {
		select {
		case msg := <-c.inbox:
			switch msg := msg.(type) {
			case startRequest:
				msg.reply <- ErrControllerClosed
			case stopRequest:
				msg.reply <- nil
			case connectResult:
				c.releaseConnectResult(msg)
			}
		default:
			return
		}
	}
}
