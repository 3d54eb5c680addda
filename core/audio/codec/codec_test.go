package codec

import (
	"testing"

	"github.com/koscakluka/ema-live/core/audio"
)

func TestPCM16DecodesAtOutputRate(t *testing.T) {
	payload := audio.EncodePCM16LE(make([]float32, 2400))

	buf, err := NewPCM16(24000).Decode(payload, "audio/pcm;rate=24000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.SampleRate != 24000 || len(buf.Samples) != 2400 {
		t.Fatalf("expected 2400 samples at 24kHz, got %d at %d", len(buf.Samples), buf.SampleRate)
	}
	if got := buf.Duration().Milliseconds(); got != 100 {
		t.Fatalf("expected 100ms, got %dms", got)
	}
}

func TestPCM16ResamplesOtherRates(t *testing.T) {
	payload := audio.EncodePCM16LE(make([]float32, 1600))

	buf, err := NewPCM16(24000).Decode(payload, "audio/pcm;rate=16000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf.Samples) != 2400 {
		t.Fatalf("expected 2400 resampled samples, got %d", len(buf.Samples))
	}
}

func TestPCM16AssumesOutputRateWithoutMIMEType(t *testing.T) {
	buf, err := NewPCM16(24000).Decode([]byte{0, 0, 0, 0}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(buf.Samples))
	}
}

func TestPCM16RejectsMalformedPayloads(t *testing.T) {
	testCases := []struct {
		name     string
		payload  []byte
		mimeType string
	}{
		{name: "odd length", payload: []byte{1}, mimeType: "audio/pcm;rate=24000"},
		{name: "bad rate", payload: []byte{0, 0}, mimeType: "audio/pcm;rate=fast"},
		{name: "zero rate", payload: []byte{0, 0}, mimeType: "audio/pcm;rate=0"},
		{name: "bad mime", payload: []byte{0, 0}, mimeType: ";;;"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := NewPCM16(24000).Decode(testCase.payload, testCase.mimeType); err == nil {
				t.Fatalf("expected decode error")
			}
		})
	}
}

func TestAutoRoutesByMediaType(t *testing.T) {
	fake := &fakeDecoder{}
	auto := NewAuto(24000, fake)

	if _, err := auto.Decode([]byte{0, 0}, "audio/pcm;rate=24000"); err != nil {
		t.Fatalf("unexpected pcm error: %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("expected pcm not to reach opus decoder")
	}

	if _, err := auto.Decode([]byte{1}, "audio/opus"); err != nil {
		t.Fatalf("unexpected opus error: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected opus payload to reach opus decoder")
	}

	if _, err := auto.Decode([]byte{1}, "video/mp4"); err == nil {
		t.Fatalf("expected unsupported type to fail")
	}
}

func TestAutoWithoutOpusRejectsOpus(t *testing.T) {
	if _, err := NewAuto(24000, nil).Decode([]byte{1}, "audio/opus"); err == nil {
		t.Fatalf("expected opus to be rejected")
	}
}

type fakeDecoder struct{ calls int }

func (f *fakeDecoder) Decode([]byte, string) (audio.Buffer, error) {
	f.calls++
	return audio.Buffer{SampleRate: 24000, Channels: 1}, nil
}
