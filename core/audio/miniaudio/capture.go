package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/core/audio"
)

// Input acquires the default capture device as mono float32.
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

	audioCtx, err := i.client.context()
	if err != nil {
		return nil, err
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(i.client.inputRate)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	mic := &microphone{}
	mic.device, err = malgo.InitDevice(audioCtx, config, malgo.DeviceCallbacks{
		Data: mic.processAudio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return mic, nil
}

type microphone struct {
	device *malgo.Device

	onSamples atomic.Pointer[func([]float32)]
	scratch   []float32

	mu sync.Mutex
}

func (m *microphone) processAudio(_, pInput []byte, frameCount uint32) {
	onSamples := m.onSamples.Load()
	if onSamples == nil || frameCount == 0 {
		return
	}

	if cap(m.scratch) < int(frameCount) {
		m.scratch = make([]float32, frameCount)
	}
	(*onSamples)(readSamples(m.scratch[:frameCount], pInput))
}

func (m *microphone) Start(onSamples func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return fmt.Errorf("device not initialized")
	} else if m.device.IsStarted() {
		return nil
	}

	m.onSamples.Store(&onSamples)
	if err := m.device.Start(); err != nil {
		m.onSamples.Store(nil)
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (m *microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSamples.Store(nil)
	if m.device == nil || !m.device.IsStarted() {
		return nil
	}

	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (m *microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSamples.Store(nil)
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	return nil
}
