package audio

import (
	"fmt"
	"time"
)

const (
	DefaultInputSampleRate  = 16000
	DefaultOutputSampleRate = 24000
	DefaultChannels         = 1
	DefaultFrameSize        = 4096
	DefaultFormat           = "linear16"
)

// GetDefaultEncodingInfo describes the microphone side of a live session:
// 16 kHz mono signed 16-bit PCM.
func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultInputSampleRate,
		Channels:   DefaultChannels,
		Format:     encodingFormat(DefaultFormat),
	}
}

// GetDefaultOutputEncodingInfo describes the playback side of a live
// session: 24 kHz mono float samples.
func GetDefaultOutputEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultOutputSampleRate,
		Channels:   DefaultChannels,
		Format:     EncodingFloat32,
	}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) channels() int {
	if e.Channels <= 0 {
		return 1
	}
	return e.Channels
}

// FrameBytes returns the encoded size of n samples per channel.
func (e EncodingInfo) FrameBytes(n int) int {
	return n * e.channels() * e.Format.ByteSize()
}

// FrameDuration returns the wall-clock length of n samples per channel.
func (e EncodingInfo) FrameDuration(n int) time.Duration {
	if e.SampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(e.SampleRate)
}

// MIMEType is the content type announced to the remote end for audio
// in this encoding.
func (e EncodingInfo) MIMEType() string {
	switch e.Format {
	case EncodingLinear16:
		return fmt.Sprintf("audio/pcm;rate=%d", e.SampleRate)
	case EncodingOpus:
		return fmt.Sprintf("audio/opus;rate=%d", e.SampleRate)
	}
	return "application/octet-stream"
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	case EncodingFloat32:
		return 4
	}
	return -1
}

const (
	EncodingLinear16 encodingFormat = "linear16"
	EncodingFloat32  encodingFormat = "float32"
	EncodingOpus     encodingFormat = "opus"
)
