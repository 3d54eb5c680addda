package miniaudio

import (
	"slices"
	"testing"
)

func TestSampleConversionRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.25, 1, -1}
	raw := make([]byte, len(samples)*bytesPerSample)
	writeSamples(raw, samples)

	got := readSamples(make([]float32, len(samples)), raw)
	if !slices.Equal(got, samples) {
		t.Fatalf("expected %v, got %v", samples, got)
	}
}

func TestReadSamplesStopsAtShortestBuffer(t *testing.T) {
	raw := make([]byte, 3*bytesPerSample+2)
	if got := readSamples(make([]float32, 8), raw); len(got) != 3 {
		t.Fatalf("expected 3 whole samples, got %d", len(got))
	}
	if got := readSamples(make([]float32, 2), raw); len(got) != 2 {
		t.Fatalf("expected destination to bound the read, got %d", len(got))
	}
}
