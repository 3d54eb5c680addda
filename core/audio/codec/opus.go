package codec

import (
	"fmt"
	"sync"

	"github.com/koscakluka/ema-live/core/audio"
	"gopkg.in/hraban/opus.v2"
)

// 120ms is the longest frame an opus packet can carry.
const maxOpusFrameMillis = 120

// Opus decodes one opus packet per payload. The decoder keeps state
// between packets, so a single instance belongs to one stream.
type Opus struct {
	sampleRate int
	decoder    *opus.Decoder
	pcm        []float32

	mu sync.Mutex
}

func NewOpus(sampleRate int) (*Opus, error) {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultOutputSampleRate
	}

	decoder, err := opus.NewDecoder(sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &Opus{
		sampleRate: sampleRate,
		decoder:    decoder,
		pcm:        make([]float32, sampleRate*maxOpusFrameMillis/1000),
	}, nil
}

func (d *Opus) Decode(payload []byte, _ string) (audio.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.decoder.DecodeFloat32(payload, d.pcm)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to decode opus packet: %w", err)
	}

	samples := make([]float32, n)
	copy(samples, d.pcm[:n])
	return audio.Buffer{Samples: samples, SampleRate: d.sampleRate, Channels: 1}, nil
}
