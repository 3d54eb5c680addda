package audio

import (
	"math"
	"testing"
)

func TestEncodePCM16LEClampsAndScales(t *testing.T) {
	testCases := []struct {
		name     string
		sample   float32
		expected int16
	}{
		{name: "silence", sample: 0, expected: 0},
		{name: "full positive", sample: 1, expected: 32767},
		{name: "full negative", sample: -1, expected: -32768},
		{name: "over positive", sample: 1.5, expected: 32767},
		{name: "over negative", sample: -3, expected: -32768},
		{name: "half negative", sample: -0.5, expected: -16384},
		{name: "nan", sample: float32(math.NaN()), expected: 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			data := EncodePCM16LE([]float32{testCase.sample})
			if len(data) != 2 {
				t.Fatalf("expected 2 bytes, got %d", len(data))
			}
			got := int16(uint16(data[0]) | uint16(data[1])<<8)
			if got != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, got)
			}
		})
	}
}

func TestFullFrameEncodesTo8192Bytes(t *testing.T) {
	frame := Frame{Sequence: 7, Samples: make([]float32, DefaultFrameSize), SampleRate: DefaultInputSampleRate, Channels: 1}

	outbound := frame.Encode()
	if len(outbound.Data) != 8192 {
		t.Fatalf("expected 8192 bytes, got %d", len(outbound.Data))
	}
	if outbound.Sequence != 7 {
		t.Fatalf("expected sequence to carry over, got %d", outbound.Sequence)
	}
	if outbound.MIMEType != "audio/pcm;rate=16000" {
		t.Fatalf("unexpected mime type %q", outbound.MIMEType)
	}
}

func TestDecodePCM16LERejectsOddLength(t *testing.T) {
	if _, err := DecodePCM16LE([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for odd length payload")
	}
}

func TestDecodeInvertsEncodeWithinOneStep(t *testing.T) {
	in := []float32{-1, -0.25, 0, 0.25, 0.999}
	out, err := DecodePCM16LE(EncodePCM16LE(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if diff := math.Abs(float64(in[i] - out[i])); diff > 1.0/16384 {
			t.Fatalf("sample %d: expected ~%v, got %v", i, in[i], out[i])
		}
	}
}

func TestResampleChangesLength(t *testing.T) {
	samples := make([]float32, 1600)
	if got := len(Resample(samples, 16000, 24000)); got != 2400 {
		t.Fatalf("expected 2400 samples, got %d", got)
	}
	if got := len(Resample(samples, 16000, 16000)); got != 1600 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := Buffer{Samples: make([]float32, 12000), SampleRate: 24000, Channels: 1}
	if got := buf.Duration().Seconds(); got != 0.5 {
		t.Fatalf("expected 0.5s, got %v", got)
	}
}
