// Package codec turns inbound audio payloads into playable buffers.
package codec

import (
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/koscakluka/ema-live/core/audio"
)

// PCM16 decodes signed 16-bit little-endian PCM. Payloads announcing a
// different rate are resampled to OutputRate.
type PCM16 struct {
	OutputRate int
}

func NewPCM16(outputRate int) PCM16 {
	if outputRate <= 0 {
		outputRate = audio.DefaultOutputSampleRate
	}
	return PCM16{OutputRate: outputRate}
}

func (d PCM16) Decode(payload []byte, mimeType string) (audio.Buffer, error) {
	outputRate := d.OutputRate
	if outputRate <= 0 {
		outputRate = audio.DefaultOutputSampleRate
	}

	rate, err := rateFromMIMEType(mimeType, outputRate)
	if err != nil {
		return audio.Buffer{}, err
	}

	samples, err := audio.DecodePCM16LE(payload)
	if err != nil {
		return audio.Buffer{}, err
	}

	return audio.Buffer{
		Samples:    audio.Resample(samples, rate, outputRate),
		SampleRate: outputRate,
		Channels:   1,
	}, nil
}

func rateFromMIMEType(mimeType string, fallback int) (int, error) {
	if strings.TrimSpace(mimeType) == "" {
		return fallback, nil
	}

	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return 0, fmt.Errorf("invalid mime type %q: %w", mimeType, err)
	}

	value, ok := params["rate"]
	if !ok {
		return fallback, nil
	}

	rate, err := strconv.Atoi(value)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %q in mime type %q", value, mimeType)
	}
	return rate, nil
}

func mediaType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	return mediaType
}
