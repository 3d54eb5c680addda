package live

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/internal/metrics"
)

// PlaybackSource is a decoded chunk that is scheduled or playing.
type PlaybackSource struct {
	ID       audio.SourceID
	Start    time.Duration
	Duration time.Duration
}

func (s PlaybackSource) End() time.Duration {
	return s.Start + s.Duration
}

// sourceArena indexes pending sources by id so completion can remove them
// without a scan.
type sourceArena struct {
	sources map[audio.SourceID]PlaybackSource
	lastID  audio.SourceID
}

func newSourceArena() sourceArena {
	return sourceArena{sources: make(map[audio.SourceID]PlaybackSource)}
}

func (a *sourceArena) nextID() audio.SourceID {
	a.lastID++
	return a.lastID
}

func (a *sourceArena) add(source PlaybackSource) { a.sources[source.ID] = source }

func (a *sourceArena) remove(id audio.SourceID) bool {
	if _, ok := a.sources[id]; !ok {
		return false
	}
	delete(a.sources, id)
	return true
}

func (a *sourceArena) len() int { return len(a.sources) }

func (a *sourceArena) drain() []audio.SourceID {
	ids := make([]audio.SourceID, 0, len(a.sources))
	for id := range a.sources {
		ids = append(ids, id)
	}
	clear(a.sources)
	return ids
}

// PlaybackScheduler lays inbound chunks end to end on the output device's
// clock. It is driven from a single goroutine.
type PlaybackScheduler struct {
	device  PlaybackDevice
	decoder Decoder
	onEnded func(audio.SourceID)

	nextStartTime time.Duration
	sources       sourceArena

	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewPlaybackScheduler creates a scheduler. onEnded is handed to the device
// for every source and is expected to route back into SourceEnded on the
// driving goroutine.
func NewPlaybackScheduler(device PlaybackDevice, decoder Decoder, onEnded func(audio.SourceID), l *slog.Logger, m *metrics.Collector) *PlaybackScheduler {
	if l == nil {
		l = logger
	}
	return &PlaybackScheduler{
		device:  device,
		decoder: decoder,
		onEnded: onEnded,
		sources: newSourceArena(),
		logger:  l,
		metrics: m,
	}
}

// Enqueue decodes a chunk and schedules it at max(next start, now). A
// chunk that fails to decode is returned as a *DecodeError and leaves the
// schedule untouched.
func (s *PlaybackScheduler) Enqueue(payload []byte, mimeType string) (PlaybackSource, error) {
	buf, err := s.decoder.Decode(payload, mimeType)
	if err != nil {
		s.metrics.RecordChunkFailed("decode")
		return PlaybackSource{}, &DecodeError{MIMEType: mimeType, Err: err}
	}

	id := s.sources.nextID()
	start, err := s.device.Play(id, buf, max(s.nextStartTime, s.device.CurrentTime()), s.onEnded)
	if err != nil {
		s.metrics.RecordChunkFailed("device")
		return PlaybackSource{}, fmt.Errorf("failed to schedule playback source: %w", err)
	}

	// The device clock may have moved past the requested start while the
	// source was being handed over, so the cursor follows where it landed.
	source := PlaybackSource{ID: id, Start: start, Duration: buf.Duration()}
	s.sources.add(source)
	s.nextStartTime = source.End()
	s.metrics.RecordChunkScheduled()
	s.metrics.SetPendingSources(s.sources.len())
	return source, nil
}

// SourceEnded forgets a source that played to completion. Unknown ids,
// such as sources already removed by Flush, are ignored.
func (s *PlaybackScheduler) SourceEnded(id audio.SourceID) {
	if s.sources.remove(id) {
		s.metrics.SetPendingSources(s.sources.len())
	}
}

// Flush stops every pending source and restarts the schedule at the
// device's current time.
func (s *PlaybackScheduler) Flush() int {
	ids := s.sources.drain()
	for _, id := range ids {
		s.device.Stop(id)
	}
	s.nextStartTime = s.device.CurrentTime()
	s.metrics.SetPendingSources(0)

	if len(ids) > 0 {
		s.logger.Debug("flushed playback sources", slog.Int("count", len(ids)))
	}
	return len(ids)
}

func (s *PlaybackScheduler) Pending() int {
	return s.sources.len()
}

func (s *PlaybackScheduler) NextStartTime() time.Duration {
	return s.nextStartTime
}
