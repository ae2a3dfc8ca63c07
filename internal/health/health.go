// Package health tracks the daemon's runtime counters and exposes them
// both as a periodic log line and an optional HTTP endpoint, adapted
// from the checker/check-function shape used for service health
// elsewhere in this codebase (minus its gRPC-facing status type, which
// this standalone daemon has no supervisor to report to).
package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Status is a point-in-time snapshot of the pipeline's counters
// (spec.md §4.4/§4.5's queue depth and per-sink error count).
type Status struct {
	QueueDepth    int64 `json:"queue_depth"`
	QueueCapacity int64 `json:"queue_capacity"`
	RecordsIn     int64 `json:"records_in"`
	RecordsOut    int64 `json:"records_out"`
	RecordsDropped int64 `json:"records_dropped"`
	SinkErrors    int64 `json:"sink_errors"`
}

// QueueDepther reports current/capacity queue depth; implemented by
// *broker.Broker.
type QueueDepther interface {
	Len() int
	Cap() int
}

// Monitor accumulates counters and periodically logs/serves them.
type Monitor struct {
	broker QueueDepther
	logger zerolog.Logger

	recordsIn      int64
	recordsOut     int64
	recordsDropped int64
	sinkErrors     int64
}

func NewMonitor(broker QueueDepther, logger zerolog.Logger) *Monitor {
	return &Monitor{broker: broker, logger: logger}
}

func (m *Monitor) RecordIn()      { atomic.AddInt64(&m.recordsIn, 1) }
func (m *Monitor) RecordOut()     { atomic.AddInt64(&m.recordsOut, 1) }
func (m *Monitor) RecordDropped() { atomic.AddInt64(&m.recordsDropped, 1) }
func (m *Monitor) SinkError()     { atomic.AddInt64(&m.sinkErrors, 1) }

func (m *Monitor) Snapshot() Status {
	s := Status{
		RecordsIn:      atomic.LoadInt64(&m.recordsIn),
		RecordsOut:     atomic.LoadInt64(&m.recordsOut),
		RecordsDropped: atomic.LoadInt64(&m.recordsDropped),
		SinkErrors:     atomic.LoadInt64(&m.sinkErrors),
	}
	if m.broker != nil {
		s.QueueDepth = int64(m.broker.Len())
		s.QueueCapacity = int64(m.broker.Cap())
	}
	return s
}

// RunPeriodicLog logs a snapshot every interval until stop is closed.
func (m *Monitor) RunPeriodicLog(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := m.Snapshot()
			m.logger.Info().
				Int64("queue_depth", s.QueueDepth).
				Int64("queue_capacity", s.QueueCapacity).
				Int64("records_in", s.RecordsIn).
				Int64("records_out", s.RecordsOut).
				Int64("records_dropped", s.RecordsDropped).
				Int64("sink_errors", s.SinkErrors).
				Msg("health")
		case <-stop:
			return
		}
	}
}

// Handler serves the current Status as JSON, for an optional /healthz
// endpoint.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.Snapshot())
	})
}
