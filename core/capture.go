package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	dropReasonQueueFull = "queue_full"
	dropReasonClosed    = "closed"
)

// capturePipeline turns arbitrary-length device callbacks into fixed,
// sequenced, encoded frames on a bounded FIFO. Write runs on the device
// thread and never blocks; run drains the FIFO on its own goroutine.
type capturePipeline struct {
	encoding  audio.EncodingInfo
	frameSize int

	pending  []float32
	sequence uint64
	queue    chan audio.OutboundFrame
	closed   bool
	mu       sync.Mutex

	dropLog    rate.Sometimes
	overrunLog rate.Sometimes

	logger  *slog.Logger
	metrics *metrics.Collector
}

func newCapturePipeline(encoding audio.EncodingInfo, frameSize, queueSize int, l *slog.Logger, m *metrics.Collector) *capturePipeline {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}
	if queueSize <= 0 {
		queueSize = defaultOutboundQueueSize
	}
	if encoding.SampleRate <= 0 {
		encoding = audio.GetDefaultEncodingInfo()
	}

	return &capturePipeline{
		encoding:   encoding,
		frameSize:  frameSize,
		pending:    make([]float32, 0, frameSize),
		queue:      make(chan audio.OutboundFrame, queueSize),
		dropLog:    rate.Sometimes{Interval: 5 * time.Second},
		overrunLog: rate.Sometimes{Interval: 5 * time.Second},
		logger:     l,
		metrics:    m,
	}
}

// Write accepts samples from the device callback. Every complete frame is
// encoded and offered to the queue; a full queue drops the frame.
func (p *capturePipeline) Write(samples []float32) {
	began := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	for len(samples) > 0 {
		n := min(p.frameSize-len(p.pending), len(samples))
		p.pending = append(p.pending, samples[:n]...)
		samples = samples[n:]

		if len(p.pending) == p.frameSize {
			p.emit()
		}
	}

	budget := p.encoding.FrameDuration(p.frameSize)
	if elapsed := time.Since(began); budget > 0 && elapsed > budget {
		p.metrics.RecordCaptureOverrun()
		p.overrunLog.Do(func() {
			p.logger.Warn("capture callback exceeded frame budget",
				slog.Duration("elapsed", elapsed),
				slog.Duration("budget", budget))
		})
	}
}

func (p *capturePipeline) emit() {
	p.sequence++
	frame := audio.Frame{
		Sequence:   p.sequence,
		Samples:    p.pending,
		SampleRate: p.encoding.SampleRate,
		Channels:   1,
	}
	outbound := frame.Encode()
	p.pending = p.pending[:0]

	select {
	case p.queue <- outbound:
	default:
		p.metrics.RecordFrameDropped(dropReasonQueueFull)
		p.dropLog.Do(func() {
			p.logger.Warn("outbound audio queue full, dropping frame",
				slog.Uint64("sequence", outbound.Sequence),
				slog.Int("capacity", cap(p.queue)))
		})
	}
}

// Close stops accepting samples and ends the queue. A partial frame is
// discarded.
func (p *capturePipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.pending = nil
	close(p.queue)
}

// run sends queued frames in order until the queue is closed or ctx ends.
// A send failure while ctx is still live is returned as a
// *TransportError.
func (p *capturePipeline) run(ctx context.Context, handle TransportHandle) error {
	for {
		select {
		case <-ctx.Done():
			p.discardQueued()
			return nil
		case frame, ok := <-p.queue:
			if !ok {
				return nil
			}
			if err := handle.Send(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return &TransportError{Op: "send", Err: err}
			}
			p.metrics.RecordFrameSent()
		}
	}
}

func (p *capturePipeline) discardQueued() {
	for {
		select {
		case _, ok := <-p.queue:
			if !ok {
				return
			}
			p.metrics.RecordFrameDropped(dropReasonClosed)
		default:
			return
		}
	}
}
