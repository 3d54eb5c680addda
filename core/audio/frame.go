package audio

import "time"

// Frame is a fixed-length block of captured samples, normalized to
// [-1, 1]. Sequence increases by one per frame within a session.
type Frame struct {
	Sequence   uint64
	Samples    []float32
	SampleRate int
	Channels   int
}

// OutboundFrame is a captured frame after wire encoding.
type OutboundFrame struct {
	Sequence uint64
	Data     []byte
	MIMEType string
}

// Encode converts the frame to signed 16-bit little-endian PCM.
func (f Frame) Encode() OutboundFrame {
	info := EncodingInfo{SampleRate: f.SampleRate, Channels: f.Channels, Format: EncodingLinear16}
	return OutboundFrame{
		Sequence: f.Sequence,
		Data:     EncodePCM16LE(f.Samples),
		MIMEType: info.MIMEType(),
	}
}

// Buffer is decoded playback audio.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

func (b Buffer) Frames() int {
	channels := b.Channels
	if channels <= 0 {
		channels = 1
	}
	return len(b.Samples) / channels
}

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}
