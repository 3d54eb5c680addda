package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

type Transport struct {
	client *genai.Client
	model  string
}

type TransportOption func(*Transport)

func WithModel(model string) TransportOption {
	return func(t *Transport) {
		if model != "" {
			t.model = model
		}
	}
}

func NewTransport(client *genai.Client, opts ...TransportOption) *Transport {
	t := &Transport{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Open(ctx context.Context, profile tutors.Profile, onEvent func(events.Event)) (live.TransportHandle, error) {
	ctx, span := tracer.Start(ctx, "open live connection", trace.WithAttributes(
		attribute.String("model", t.model),
		attribute.String("voice", profile.Voice.Name),
	))
	defer span.End()

	session, err := t.client.Live.Connect(ctx, t.model, connectConfig(profile))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to connect to %s: %w", t.model, err)
	}

	h := &handle{session: session, done: make(chan struct{})}
	go h.receive(onEvent)
	return h, nil
}

func connectConfig(profile tutors.Profile) *genai.LiveConnectConfig {
	config := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: profile.Voice.Name},
			},
		},
	}
	if profile.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(profile.SystemPrompt, genai.RoleUser)
	}
	return config
}

type handle struct {
	session *genai.Session
	sendMu  sync.Mutex

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

	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	return h.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: frame.Data, MIMEType: frame.MIMEType},
	})
}

// Close ends the session and waits for the receive loop to exit. No
// events are delivered after it returns.
func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeErr = h.session.Close()
		<-h.done
	})
	return h.closeErr
}

func (h *handle) receive(onEvent func(events.Event)) {
	defer close(h.done)
	sink := events.Sink(onEvent)

	for {
		msg, err := h.session.Receive()
		if h.closed.Load() {
			return
		}
		if err != nil {
			sink.Emit(terminalEvent(err))
			return
		}

		if msg.GoAway != nil {
			logger.Info("server is going away", slog.String("time_left", msg.GoAway.TimeLeft.String()))
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

// classify turns one server message into events: transcriptions first,
// then every inline audio part, then interruption and turn completion.
func classify(msg *genai.LiveServerMessage) []events.Event {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}
	content := msg.ServerContent

	var evts []events.Event
	if t := content.InputTranscription; t != nil && t.Text != "" {
		evts = append(evts, events.NewInputTranscription(t.Text))
	}
	if t := content.OutputTranscription; t != nil && t.Text != "" {
		evts = append(evts, events.NewOutputTranscription(t.Text))
	}
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			evts = append(evts, events.NewAudioChunk(part.InlineData.Data, part.InlineData.MIMEType))
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
