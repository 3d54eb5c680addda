package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
)

// Output opens the default playback device. Scheduled buffers are mixed on
// the device thread, so the clock only advances while audio is consumed.
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

	audioCtx, err := o.client.context()
	if err != nil {
		return nil, err
	}

	rate := o.client.outputRate
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(rate)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 1
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(rate / 50) // ~20ms of audio
	config.Periods = 4

	device := &playbackDevice{mixer: audio.NewMixer(rate)}
	device.device, err = malgo.InitDevice(audioCtx, config, malgo.DeviceCallbacks{
		Data: device.processAudio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.device.Start(); err != nil {
		device.device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return device, nil
}

type playbackDevice struct {
	device *malgo.Device
	mixer  *audio.Mixer

	scratch []float32

	mu sync.Mutex
}

func (d *playbackDevice) processAudio(pOutput, _ []byte, frameCount uint32) {
	if cap(d.scratch) < int(frameCount) {
		d.scratch = make([]float32, frameCount)
	}
	out := d.scratch[:frameCount]
	d.mixer.Render(out)
	writeSamples(pOutput, out)
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
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil
	}

	d.mixer.Reset()
	err := d.device.Stop()
	d.device.Uninit()
	d.device = nil
	if err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	return nil
}
