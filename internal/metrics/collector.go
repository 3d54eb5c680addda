// Package metrics exposes Prometheus instruments for live sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the live-session instruments. A nil *Collector is valid
// and records nothing.
type Collector struct {
	registry *prometheus.Registry

	sessionsTotal     *prometheus.CounterVec
	sessionDuration   prometheus.Histogram
	stateTransitions  *prometheus.CounterVec
	framesSent        prometheus.Counter
	framesDropped     *prometheus.CounterVec
	captureOverruns   prometheus.Counter
	chunksScheduled   prometheus.Counter
	chunksFailed      *prometheus.CounterVec
	pendingSources    prometheus.Gauge
	interruptions     prometheus.Counter
	turnsCompleted    prometheus.Counter
	utterancesEmitted *prometheus.CounterVec
}

// NewCollector registers every instrument on a private registry under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		sessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions ended, by terminal outcome.",
		}, []string{"outcome"}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Time from start request to closed.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		stateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frames_sent_total",
			Help:      "Captured frames handed to the transport.",
		}),
		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frames_dropped_total",
			Help:      "Captured frames dropped before sending.",
		}, []string{"reason"}),
		captureOverruns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_overruns_total",
			Help:      "Capture callbacks that exceeded their frame budget.",
		}),
		chunksScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_chunks_scheduled_total",
			Help:      "Inbound audio chunks scheduled for playback.",
		}),
		chunksFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_chunks_failed_total",
			Help:      "Inbound audio chunks that could not be played.",
		}, []string{"reason"}),
		pendingSources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_pending_sources",
			Help:      "Playback sources scheduled or playing.",
		}),
		interruptions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interruptions_total",
			Help:      "Barge-in interruptions handled.",
		}),
		turnsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_completed_total",
			Help:      "Tutor turns completed.",
		}),
		utterancesEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Utterances appended to the transcript, by speaker.",
		}, []string{"speaker"}),
	}
}

// Registry returns the registry the instruments live on, for serving.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordSessionEnded(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.sessionsTotal.WithLabelValues(outcome).Inc()
	c.sessionDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordTransition(from, to string) {
	if c == nil {
		return
	}
	c.stateTransitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordFrameSent() {
	if c == nil {
		return
	}
	c.framesSent.Inc()
}

func (c *Collector) RecordFrameDropped(reason string) {
	if c == nil {
		return
	}
	c.framesDropped.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordCaptureOverrun() {
	if c == nil {
		return
	}
	c.captureOverruns.Inc()
}

func (c *Collector) RecordChunkScheduled() {
	if c == nil {
		return
	}
	c.chunksScheduled.Inc()
}

func (c *Collector) RecordChunkFailed(reason string) {
	if c == nil {
		return
	}
	c.chunksFailed.WithLabelValues(reason).Inc()
}

func (c *Collector) SetPendingSources(n int) {
	if c == nil {
		return
	}
	c.pendingSources.Set(float64(n))
}

func (c *Collector) RecordInterruption() {
	if c == nil {
		return
	}
	c.interruptions.Inc()
}

func (c *Collector) RecordTurnCompleted() {
	if c == nil {
		return
	}
	c.turnsCompleted.Inc()
}

func (c *Collector) RecordUtterance(speaker string) {
	if c == nil {
		return
	}
	c.utterancesEmitted.WithLabelValues(speaker).Inc()
}
