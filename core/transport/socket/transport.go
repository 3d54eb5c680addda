// Package socket speaks the Gemini Live bidirectional protocol directly
// over a websocket, without the genai SDK.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultModel    = "gemini-2.5-flash-native-audio-preview-09-2025"

	handshakeTimeout = 10 * time.Second
	closeGracePeriod = time.Second
)

type Transport struct {
	endpoint string
	apiKey   string
	model    string
	dialer   websocket.Dialer
}

type TransportOption func(*Transport)

func WithEndpoint(endpoint string) TransportOption {
	return func(t *Transport) {
		if endpoint != "" {
			t.endpoint = endpoint
		}
	}
}

func WithModel(model string) TransportOption {
	return func(t *Transport) {
		if model != "" {
			t.model = model
		}
	}
}

func NewTransport(apiKey string, opts ...TransportOption) *Transport {
	t := &Transport{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		model:    DefaultModel,
		dialer:   websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open dials the endpoint, sends the session setup and returns once the
// server has confirmed it.
func (t *Transport) Open(ctx context.Context, profile tutors.Profile, onEvent func(events.Event)) (live.TransportHandle, error) {
	ctx, span := tracer.Start(ctx, "open live socket", trace.WithAttributes(
		attribute.String("model", t.model),
		attribute.String("voice", profile.Voice.Name),
	))
	defer span.End()

	conn, err := t.handshake(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	h := &handle{conn: conn, done: make(chan struct{})}
	go h.receive(onEvent)
	return h, nil
}

func (t *Transport) handshake(ctx context.Context, profile tutors.Profile) (*websocket.Conn, error) {
	target, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if t.apiKey != "" {
		query := target.Query()
		query.Set("key", t.apiKey)
		target.RawQuery = query.Encode()
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	conn, _, err := t.dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	// The dial context does not cover the setup exchange.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(newSetup(t.model, profile)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send setup: %w", err)
	}

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			_ = conn.Close()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to complete setup: %w", err)
		}
		if msg.SetupComplete != nil {
			if !stop() {
				return nil, ctx.Err()
			}
			return conn, nil
		}
	}
}

type handle struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func (h *handle) Send(ctx context.Context, frame audio.OutboundFrame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.closed.Load() {
		return net.ErrClosed
	}

	return h.write(clientMessage{RealtimeInput: &realtimeInput{
		Audio: &blob{Data: frame.Data, MIMEType: frame.MIMEType},
	}})
}

func (h *handle) write(msg clientMessage) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.conn.WriteJSON(msg)
}

// Close sends a close frame, drops the connection and waits for the
// receive loop to exit.
func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)

		h.writeMu.Lock()
		_ = h.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod))
		h.writeMu.Unlock()

		h.closeErr = h.conn.Close()
		<-h.done
	})
	return h.closeErr
}

func (h *handle) receive(onEvent func(events.Event)) {
	defer close(h.done)
	sink := events.Sink(onEvent)

	for {
		var msg serverMessage
		err := h.conn.ReadJSON(&msg)
		if h.closed.Load() {
			return
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			logger.Warn("skipping malformed server message", slog.Any("error", err))
			continue
		case err != nil:
			sink.Emit(terminalEvent(err))
			return
		}

		if msg.GoAway != nil {
			logger.Info("server is going away", slog.String("time_left", msg.GoAway.TimeLeft))
		}
		sink.Emit(classify(msg)...)
	}
}

func terminalEvent(err error) events.Event {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
		return events.NewTransportClosed(closeErr.Text)
	}
	return events.NewTransportError(err)
}

// classify orders one message as transcriptions, audio parts, then
// interruption and turn completion.
func classify(msg serverMessage) []events.Event {
	content := msg.ServerContent
	if content == nil {
		return nil
	}

	var evts []events.Event
	if t := content.InputTranscription; t != nil && t.Text != "" {
		evts = append(evts, events.NewInputTranscription(t.Text))
	}
	if t := content.OutputTranscription; t != nil && t.Text != "" {
		evts = append(evts, events.NewOutputTranscription(t.Text))
	}
	if content.ModelTurn != nil {
		for _, p := range content.ModelTurn.Parts {
			if p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			evts = append(evts, events.NewAudioChunk(p.InlineData.Data, p.InlineData.MIMEType))
		}
	}
	if content.Interrupted {
		evts = append(evts, events.NewInterrupted())
	}
	if content.TurnComplete {
		evts = append(evts, events.NewTurnComplete())
	}
	return evts
}
