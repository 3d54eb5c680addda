package main

import (
	"fmt"

	live "github.com/koscakluka/ema-live/core"
	"github.com/koscakluka/ema-live/config"
	"github.com/koscakluka/ema-live/core/audio/codec"
	"github.com/koscakluka/ema-live/core/audio/miniaudio"
	"github.com/koscakluka/ema-live/core/audio/portaudio"
)

// portaudioBufferSize is ~64ms at 16 kHz.
const portaudioBufferSize = 1024

type devices struct {
	Input  live.AudioInput
	Output live.AudioOutput
	Close  func() error
}

func openDevices(cfg config.AudioConfig) (*devices, error) {
	switch cfg.Backend {
	case config.BackendPortaudio:
		client, err := portaudio.NewClient(portaudioBufferSize,
			portaudio.WithInputSampleRate(cfg.InputSampleRate),
			portaudio.WithOutputSampleRate(cfg.OutputSampleRate))
		if err != nil {
			return nil, err
		}
		return &devices{Input: client.Input(), Output: client.Output(), Close: client.Close}, nil

	case config.BackendMiniaudio:
		client, err := miniaudio.NewClient(
			miniaudio.WithInputSampleRate(cfg.InputSampleRate),
			miniaudio.WithOutputSampleRate(cfg.OutputSampleRate))
		if err != nil {
			return nil, err
		}
		return &devices{Input: client.Input(), Output: client.Output(), Close: client.Close}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
}

// decoderFactory builds a fresh decoder for every session, since the opus
// decoder keeps stream state.
func decoderFactory(cfg config.AudioConfig) live.DecoderFactory {
	return func() (live.Decoder, error) {
		if cfg.Codec != config.CodecOpus {
			return codec.NewAuto(cfg.OutputSampleRate, nil), nil
		}

		opus, err := codec.NewOpus(cfg.OutputSampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to create opus decoder: %w", err)
		}
		return codec.NewAuto(cfg.OutputSampleRate, opus), nil
	}
}
