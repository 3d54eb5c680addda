package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
	"github.com/koscakluka/ema-live/internal/metrics"
)

type ControllerOption func(*Controller)

// Transport opens a bidirectional session with the remote endpoint.
// onEvent must receive events in arrival order and may be called from any
// goroutine until the handle is closed.
type Transport interface {
	Open(ctx context.Context, profile tutors.Profile, onEvent func(events.Event)) (TransportHandle, error)
}

type TransportHandle interface {
	Send(ctx context.Context, frame audio.OutboundFrame) error
	Close() error
}

func WithTransport(transport Transport) ControllerOption {
	return func(c *Controller) { c.transport = transport }
}

type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	AcquireMicrophone(ctx context.Context) (Microphone, error)
}

// Microphone delivers captured mono samples. onSamples runs on the device
// thread and must not block.
type Microphone interface {
	Start(onSamples func(samples []float32)) error
	Stop() error
	Close() error
}

func WithAudioInput(input AudioInput) ControllerOption {
	return func(c *Controller) { c.audioInput = input }
}

type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	OpenPlayback(ctx context.Context) (PlaybackDevice, error)
}

// PlaybackDevice plays buffers at absolute times on its own audio clock.
// Play returns the time the source will actually start, which is later
// than at when the clock has already passed it. onEnded fires once for
// every source that plays to completion, never for a stopped one.
type PlaybackDevice interface {
	CurrentTime() time.Duration
	Play(id audio.SourceID, buf audio.Buffer, at time.Duration, onEnded func(audio.SourceID)) (time.Duration, error)
	Stop(id audio.SourceID)
	Close() error
}

func WithAudioOutput(output AudioOutput) ControllerOption {
	return func(c *Controller) { c.audioOutput = output }
}

type Decoder interface {
	Decode(payload []byte, mimeType string) (audio.Buffer, error)
}

// DecoderFactory builds the decoder for one session. Decoders may carry
// state from chunk to chunk, so sessions never share one.
type DecoderFactory func() (Decoder, error)

// WithDecoder hands the same decoder to every session, so it must be
// stateless. Use WithDecoderFactory for stream decoders such as opus.
func WithDecoder(decoder Decoder) ControllerOption {
	return func(c *Controller) {
		if decoder != nil {
			c.newDecoder = func() (Decoder, error) { return decoder, nil }
		}
	}
}

func WithDecoderFactory(factory DecoderFactory) ControllerOption {
	return func(c *Controller) {
		if factory != nil {
			c.newDecoder = factory
		}
	}
}

func WithStatusCallback(callback func(state State, message string)) ControllerOption {
	return func(c *Controller) { c.emitter.onStatusChange = callback }
}

func WithTranscriptCallback(callback func(history []Utterance)) ControllerOption {
	return func(c *Controller) { c.emitter.onTranscriptUpdate = callback }
}

func WithErrorCallback(callback func(message string)) ControllerOption {
	return func(c *Controller) { c.emitter.onError = callback }
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(collector *metrics.Collector) ControllerOption {
	return func(c *Controller) { c.metrics = collector }
}

// WithFrameSize sets the number of samples per outbound frame.
func WithFrameSize(samples int) ControllerOption {
	return func(c *Controller) {
		if samples > 0 {
			c.frameSize = samples
		}
	}
}

// WithOutboundQueueSize bounds how many encoded frames may wait for the
// sender before capture starts dropping.
func WithOutboundQueueSize(frames int) ControllerOption {
	return func(c *Controller) {
		if frames > 0 {
			c.outboundQueueSize = frames
		}
	}
}

func WithConnectTimeout(timeout time.Duration) ControllerOption {
	return func(c *Controller) { c.connectTimeout = timeout }
}
