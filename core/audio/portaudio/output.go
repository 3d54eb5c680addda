package portaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
)

type Output struct {
	client *Client
}

func (o *Output) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: o.client.outputRate,
		Channels:   1,
		Format:     audio.EncodingFloat32,
	}
}

func (o *Output) OpenPlayback(ctx context.Context) (live.PlaybackDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.client.checkOpen(); err != nil {
		return nil, err
	}

	out := make([]float32, o.client.bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(o.client.outputRate), len(out), out)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}

	device := &playbackDevice{
		stream: stream,
		out:    out,
		mixer:  audio.NewMixer(o.client.outputRate),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go device.write()
	return device, nil
}

// playbackDevice keeps the output stream fed from a mixer. Silence is
// written while nothing is scheduled so the mixer clock keeps pace with
// the device.
type playbackDevice struct {
	stream blockingStream
	out    []float32
	mixer  *audio.Mixer

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (d *playbackDevice) write() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		d.mixer.Render(d.out)
		if err := d.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			logger.Warn("failed to write to output stream", slog.Any("error", err))
			return
		}
	}
}

func (d *playbackDevice) CurrentTime() time.Duration {
	return d.mixer.Now()
}

func (d *playbackDevice) Play(id audio.SourceID, buf audio.Buffer, at time.Duration, onEnded func(audio.SourceID)) (time.Duration, error) {
	return d.mixer.Schedule(id, buf, at, onEnded)
}

func (d *playbackDevice) Stop(id audio.SourceID) {
	d.mixer.Cancel(id)
}

func (d *playbackDevice) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.mixer.Reset()
		close(d.stop)
		<-d.done

		var errs []error
		if stopErr := d.stream.Stop(); stopErr != nil {
			errs = append(errs, fmt.Errorf("failed to stop output stream: %w", stopErr))
		}
		if closeErr := d.stream.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("failed to close output stream: %w", closeErr))
		}
		err = errors.Join(errs...)
	})
	return err
}
