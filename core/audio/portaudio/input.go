package portaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
)

type Input struct {
	client *Client
}

func (i *Input) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: i.client.inputRate,
		Channels:   1,
		Format:     audio.EncodingFloat32,
	}
}

func (i *Input) AcquireMicrophone(ctx context.Context) (live.Microphone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := i.client.checkOpen(); err != nil {
		return nil, err
	}

	in := make([]float32, i.client.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(i.client.inputRate), len(in), in)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	return &microphone{stream: stream, in: in}, nil
}

type microphone struct {
	stream blockingStream
	in     []float32

	stop chan struct{}
	done chan struct{}

	mu sync.Mutex
}

func (m *microphone) Start(onSamples func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return fmt.Errorf("stream closed")
	} else if m.stop != nil {
		return nil
	}

	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stop, m.done = make(chan struct{}), make(chan struct{})
	go m.read(onSamples, m.stop, m.done)
	return nil
}

func (m *microphone) read(onSamples func([]float32), stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := m.stream.Read(); err != nil {
			// Overflows are reported but the samples are still usable.
			if err != portaudio.InputOverflowed {
				select {
				case <-stop:
					return
				default:
				}
				logger.Warn("failed to read from input stream", slog.Any("error", err))
				return
			}
		}
		onSamples(m.in)
	}
}

func (m *microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop == nil {
		return nil
	}

	close(m.stop)
	err := m.stream.Stop()
	<-m.done
	m.stop, m.done = nil, nil
	if err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

// Close releases the stream even when stopping it fails.
func (m *microphone) Close() error {
	stopErr := m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return stopErr
	}
	err := m.stream.Close()
	m.stream = nil
	if err != nil {
		err = fmt.Errorf("failed to close input stream: %w", err)
	}
	return errors.Join(stopErr, err)
}
