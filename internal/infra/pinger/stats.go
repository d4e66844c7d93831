package pinger

import (
	"slices"
	"sync"
	"time"
)

// latencyWindow is the number of recent ping latencies kept per pinger.
const latencyWindow = 100

// LatencyMetrics summarizes the recent ping latencies of a pinger.
type LatencyMetrics struct {
	Count  int           `json:"count"`
	Median time.Duration `json:"median"`
	P90    time.Duration `json:"p90"`
	P99    time.Duration `json:"p99"`
	Max    time.Duration `json:"max"`
}

// Statistics is a point-in-time view of a pinger.
type Statistics struct {
	Ready        bool           `json:"ready"`
	Healthy      bool           `json:"healthy"`
	LastRun      time.Time      `json:"lastRun,omitzero"`
	LastError    string         `json:"lastError,omitempty"`
	LastErrorAt  time.Time      `json:"lastErrorAt,omitzero"`
	SuccessCount int            `json:"successCount"`
	ErrorCount   int            `json:"errorCount"`
	Latency      LatencyMetrics `json:"latency"`
}

type stats struct {
	mu        sync.Mutex
	lastRun   time.Time
	lastErr   error
	lastErrAt time.Time
	successes int
	failures  int
	latencies []time.Duration
	next      int
}

func newStats() *stats {
	return &stats{latencies: make([]time.Duration, 0, latencyWindow)}
}

func (s *stats) record(at time.Time, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = at
	s.lastErr = err

	if err != nil {
		s.failures++
		s.lastErrAt = at
	} else {
		s.successes++
	}

	if len(s.latencies) < latencyWindow {
		s.latencies = append(s.latencies, latency)

		return
	}

	s.latencies[s.next] = latency
	s.next = (s.next + 1) % latencyWindow
}

func (s *stats) snapshot() *Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Statistics{
		LastRun:      s.lastRun,
		LastErrorAt:  s.lastErrAt,
		SuccessCount: s.successes,
		ErrorCount:   s.failures,
		Latency:      summarize(slices.Clone(s.latencies)),
	}

	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	return st
}

// summarize sorts latencies in place.
func summarize(latencies []time.Duration) LatencyMetrics {
	if len(latencies) == 0 {
		return LatencyMetrics{}
	}

	slices.Sort(latencies)

	return LatencyMetrics{
		Count:  len(latencies),
		Median: percentile(latencies, 50),
		P90:    percentile(latencies, 90),
		P99:    percentile(latencies, 99),
		Max:    latencies[len(latencies)-1],
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}

	return sorted[rank-1]
}
