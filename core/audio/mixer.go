package audio

import (
	"fmt"
	"sync"
	"time"
)

// SourceID identifies a scheduled playback source.
type SourceID uint64

// Mixer renders scheduled mono buffers onto a single output timeline. Its
// clock is the number of frames rendered so far, so it only advances as
// the device consumes audio.
type Mixer struct {
	sampleRate int

	position int64
	sources  map[SourceID]*mixerSource

	mu sync.Mutex
}

type mixerSource struct {
	samples []float32
	start   int64
	onEnded func(SourceID)
}

func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultOutputSampleRate
	}
	return &Mixer{sampleRate: sampleRate, sources: make(map[SourceID]*mixerSource)}
}

func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// Now returns the playback position on the mixer clock.
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.framesToDuration(m.position)
}

// Schedule queues buf to start at the given clock time and returns the
// time it will actually start. A start time in the past begins at the
// current position.
func (m *Mixer) Schedule(id SourceID, buf Buffer, at time.Duration, onEnded func(SourceID)) (time.Duration, error) {
	samples := DownmixToMono(buf.Samples, buf.Channels)
	if buf.SampleRate != m.sampleRate {
		samples = Resample(samples, buf.SampleRate, m.sampleRate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[id]; ok {
		return 0, fmt.Errorf("source %d already scheduled", id)
	}

	start := max(m.durationToFrames(at), m.position)
	m.sources[id] = &mixerSource{samples: samples, start: start, onEnded: onEnded}
	return m.framesToDuration(start), nil
}

// Cancel removes a source without invoking its completion callback.
func (m *Mixer) Cancel(id SourceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[id]; !ok {
		return false
	}
	delete(m.sources, id)
	return true
}

// Reset drops every scheduled source.
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.sources)
}

func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Render fills out with the next len(out) frames and advances the clock.
// Completion callbacks run on their own goroutine so the device thread is
// never blocked by a consumer.
func (m *Mixer) Render(out []float32) {
	clear(out)

	m.mu.Lock()
	from := m.position
	to := from + int64(len(out))

	var ended []func()
	for id, src := range m.sources {
		end := src.start + int64(len(src.samples))
		lo, hi := max(src.start, from), min(end, to)
		for i := lo; i < hi; i++ {
			out[i-from] += src.samples[i-src.start]
		}

		if end <= to {
			delete(m.sources, id)
			if src.onEnded != nil {
				id, onEnded := id, src.onEnded
				ended = append(ended, func() { onEnded(id) })
			}
		}
	}
	m.position = to
	m.mu.Unlock()

	for i, s := range out {
		out[i] = max(-1, min(1, s))
	}

	if len(ended) > 0 {
		go func() {
			for _, callback := range ended {
				callback()
			}
		}()
	}
}

func (m *Mixer) framesToDuration(frames int64) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(m.sampleRate)
}

// durationToFrames rounds to the nearest frame. Durations derived from
// frame counts are truncated to the nanosecond, so flooring would land one
// frame early.
func (m *Mixer) durationToFrames(d time.Duration) int64 {
	return (int64(d)*int64(m.sampleRate) + int64(time.Second)/2) / int64(time.Second)
}
