package audio

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestMixerRendersScheduledSourcesInOrder(t *testing.T) {
	mixer := NewMixer(10)

	ended := make(chan SourceID, 2)
	onEnded := func(id SourceID) { ended <- id }

	if _, err := mixer.Schedule(1, Buffer{Samples: []float32{0.1, 0.1}, SampleRate: 10, Channels: 1}, 0, onEnded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mixer.Schedule(2, Buffer{Samples: []float32{0.2, 0.2}, SampleRate: 10, Channels: 1}, 200*time.Millisecond, onEnded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := make([]float32, 5)
	mixer.Render(out)

	expected := []float32{0.1, 0.1, 0.2, 0.2, 0}
	for i := range expected {
		if out[i] != expected[i] {
			t.Fatalf("frame %d: expected %v, got %v", i, expected[i], out[i])
		}
	}

	if got := mixer.Now(); got != 500*time.Millisecond {
		t.Fatalf("expected clock at 500ms, got %v", got)
	}

	seen := map[SourceID]bool{}
	for range 2 {
		select {
		case id := <-ended:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for completion callbacks")
		}
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected both sources to end, got %v", seen)
	}
	if mixer.Pending() != 0 {
		t.Fatalf("expected no pending sources, got %d", mixer.Pending())
	}
}

func TestMixerLateStartBeginsAtCurrentPosition(t *testing.T) {
	mixer := NewMixer(10)
	mixer.Render(make([]float32, 3))

	start, err := mixer.Schedule(1, Buffer{Samples: []float32{0.5}, SampleRate: 10, Channels: 1}, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 300*time.Millisecond {
		t.Fatalf("expected reported start at 300ms, got %v", start)
	}

	out := make([]float32, 2)
	mixer.Render(out)
	if out[0] != 0.5 {
		t.Fatalf("expected late source to play immediately, got %v", out)
	}
}

func TestMixerCancelSkipsCallback(t *testing.T) {
	mixer := NewMixer(10)

	called := make(chan struct{}, 1)
	if _, err := mixer.Schedule(1, Buffer{Samples: []float32{0.5, 0.5}, SampleRate: 10, Channels: 1}, 0, func(SourceID) { called <- struct{}{} }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mixer.Cancel(1) {
		t.Fatalf("expected cancel to find the source")
	}

	out := make([]float32, 2)
	mixer.Render(out)
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("expected silence after cancel, got %v", out)
	}

	select {
	case <-called:
		t.Fatalf("expected no completion callback for cancelled source")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMixerRejectsDuplicateID(t *testing.T) {
	mixer := NewMixer(10)
	buf := Buffer{Samples: []float32{0}, SampleRate: 10, Channels: 1}
	if _, err := mixer.Schedule(1, buf, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mixer.Schedule(1, buf, 0, nil); err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
}

func TestMixerClampsSummedOutput(t *testing.T) {
	mixer := NewMixer(10)
	buf := Buffer{Samples: []float32{0.8}, SampleRate: 10, Channels: 1}
	_, _ = mixer.Schedule(1, buf, 0, nil)
	_, _ = mixer.Schedule(2, buf, 0, nil)

	out := make([]float32, 1)
	mixer.Render(out)
	if out[0] != 1 {
		t.Fatalf("expected clamped output of 1, got %v", out[0])
	}
}

func constantBuffer(frames int, value float32, rate int) Buffer {
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = value
	}
	return Buffer{Samples: samples, SampleRate: rate, Channels: 1}
}

// assertNoOverlap fails when any frame of out carries the sum of both
// values instead of exactly one of them or silence.
func assertNoOverlap(t *testing.T, out []float32, first, second float32) {
	t.Helper()
	for i, s := range out {
		if s != 0 && s != first && s != second {
			t.Fatalf("frame %d = %v: sources overlap", i, s)
		}
	}
}

func TestMixerBackToBackNonRoundChunksDoNotOverlap(t *testing.T) {
	mixer := NewMixer(24000)

	first := constantBuffer(1000, 0.25, 24000)
	second := constantBuffer(1000, 0.5, 24000)

	start, err := mixer.Schedule(1, first, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next := start + first.Duration()
	if _, err := mixer.Schedule(2, second, next, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := make([]float32, 2000)
	mixer.Render(out)
	assertNoOverlap(t, out, 0.25, 0.5)
	if out[999] != 0.25 || out[1000] != 0.5 {
		t.Fatalf("expected boundary at frame 1000, got %v then %v", out[999], out[1000])
	}
}

func TestMixerScheduleReportsWhereLateSourceLands(t *testing.T) {
	mixer := NewMixer(24000)

	now := mixer.Now()
	mixer.Render(make([]float32, 480))

	first := constantBuffer(1200, 0.25, 24000)
	start, err := mixer.Schedule(1, first, now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 20*time.Millisecond {
		t.Fatalf("expected start moved up to 20ms, got %v", start)
	}

	second := constantBuffer(1200, 0.5, 24000)
	if _, err := mixer.Schedule(2, second, start+first.Duration(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := make([]float32, 2400)
	mixer.Render(out)
	assertNoOverlap(t, out, 0.25, 0.5)
}

func TestMixerNonRoundChunkSequencesStayGapless(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.SampledFrom([]int{16000, 22050, 24000, 44100, 48000}).Draw(t, "rate")
		mixer := NewMixer(rate)

		var next time.Duration
		var frames int
		count := rapid.IntRange(1, 10).Draw(t, "chunks")
		for i := range count {
			buf := constantBuffer(rapid.IntRange(1, 3000).Draw(t, "frames"), 0.5, rate)
			start, err := mixer.Schedule(SourceID(i+1), buf, next, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			next = start + buf.Duration()
			frames += buf.Frames()
		}

		out := make([]float32, frames+1)
		mixer.Render(out)
		for i := range frames {
			if out[i] != 0.5 {
				t.Fatalf("frame %d = %v: expected exactly one source", i, out[i])
			}
		}
		if out[frames] != 0 {
			t.Fatalf("expected silence after the last chunk, got %v", out[frames])
		}
	})
}
