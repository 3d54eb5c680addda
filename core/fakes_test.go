package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/tutors"
)

// msDecoder treats every payload byte as one millisecond of 24 kHz audio.
type msDecoder struct{}

func (msDecoder) Decode(payload []byte, mimeType string) (audio.Buffer, error) {
	if mimeType == "bad" {
		return audio.Buffer{}, errors.New("corrupt payload")
	}
	return audio.Buffer{Samples: make([]float32, len(payload)*24), SampleRate: 24000, Channels: 1}, nil
}

func chunkOf(ms int) []byte { return make([]byte, ms) }

type playedSource struct {
	id  audio.SourceID
	at  time.Duration
	dur time.Duration
}

type fakePlaybackDevice struct {
	mu      sync.Mutex
	now     time.Duration
	played  []playedSource
	stopped []audio.SourceID
	ended   map[audio.SourceID]func(audio.SourceID)
	playErr error
	closed  int
	log     *callLog

	// playLag advances the clock inside Play, as a device thread rendering
	// between CurrentTime and Play would.
	playLag time.Duration
}

func newFakePlaybackDevice() *fakePlaybackDevice {
	return &fakePlaybackDevice{ended: map[audio.SourceID]func(audio.SourceID){}}
}

func (d *fakePlaybackDevice) CurrentTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now
}

func (d *fakePlaybackDevice) advance(by time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now += by
}

func (d *fakePlaybackDevice) Play(id audio.SourceID, buf audio.Buffer, at time.Duration, onEnded func(audio.SourceID)) (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playErr != nil {
		return 0, d.playErr
	}
	d.now += d.playLag
	start := max(at, d.now)
	d.played = append(d.played, playedSource{id: id, at: start, dur: buf.Duration()})
	d.ended[id] = onEnded
	return start, nil
}

func (d *fakePlaybackDevice) Stop(id audio.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = append(d.stopped, id)
	delete(d.ended, id)
}

// finish fires the completion callback for id as the device would.
func (d *fakePlaybackDevice) finish(id audio.SourceID) {
	d.mu.Lock()
	onEnded := d.ended[id]
	delete(d.ended, id)
	d.mu.Unlock()
	if onEnded != nil {
		onEnded(id)
	}
}

func (d *fakePlaybackDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	d.log.add("output close")
	return nil
}

func (d *fakePlaybackDevice) snapshot() ([]playedSource, []audio.SourceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]playedSource(nil), d.played...), append([]audio.SourceID(nil), d.stopped...)
}

type fakeAudioOutput struct {
	device  *fakePlaybackDevice
	openErr error
	opened  int
	mu      sync.Mutex
}

func (o *fakeAudioOutput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultOutputEncodingInfo() }

func (o *fakeAudioOutput) OpenPlayback(context.Context) (PlaybackDevice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.opened++
	return o.device, nil
}

type fakeMicrophone struct {
	mu        sync.Mutex
	onSamples func([]float32)
	startErr  error
	stops     int
	closes    int
	log       *callLog
}

func (m *fakeMicrophone) Start(onSamples func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.onSamples = onSamples
	return nil
}

func (m *fakeMicrophone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.onSamples = nil
	m.log.add("microphone stop")
	return nil
}

func (m *fakeMicrophone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	m.log.add("microphone close")
	return nil
}

// speak feeds samples as the device callback would.
func (m *fakeMicrophone) speak(samples []float32) bool {
	m.mu.Lock()
	onSamples := m.onSamples
	m.mu.Unlock()
	if onSamples == nil {
		return false
	}
	onSamples(samples)
	return true
}

func (m *fakeMicrophone) counts() (stops, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops, m.closes
}

type fakeAudioInput struct {
	mic        *fakeMicrophone
	acquireErr error
}

func (i *fakeAudioInput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (i *fakeAudioInput) AcquireMicrophone(context.Context) (Microphone, error) {
	if i.acquireErr != nil {
		return nil, i.acquireErr
	}
	return i.mic, nil
}

type fakeHandle struct {
	mu      sync.Mutex
	sent    []audio.OutboundFrame
	sendErr error
	closes  int
	onEvent func(events.Event)
	log     *callLog
}

func (h *fakeHandle) Send(_ context.Context, frame audio.OutboundFrame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, frame)
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	h.log.add("transport close")
	return nil
}

func (h *fakeHandle) emit(evts ...events.Event) {
	for _, event := range evts {
		h.onEvent(event)
	}
}

func (h *fakeHandle) sentFrames() []audio.OutboundFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]audio.OutboundFrame(nil), h.sent...)
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

type fakeTransport struct {
	mu       sync.Mutex
	handles  []*fakeHandle
	openErr  error
	gate     chan struct{}
	profiles []tutors.Profile
	log      *callLog
}

func (tr *fakeTransport) Open(ctx context.Context, profile tutors.Profile, onEvent func(events.Event)) (TransportHandle, error) {
	if tr.gate != nil {
		select {
		case <-tr.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.profiles = append(tr.profiles, profile)
	if tr.openErr != nil {
		return nil, tr.openErr
	}
	handle := &fakeHandle{onEvent: onEvent, log: tr.log}
	tr.handles = append(tr.handles, handle)
	return handle, nil
}

func (tr *fakeTransport) last() *fakeHandle {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.handles) == 0 {
		return nil
	}
	return tr.handles[len(tr.handles)-1]
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}
