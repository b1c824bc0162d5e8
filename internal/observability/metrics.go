package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides in-memory request and error counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latency      map[string]time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests      map[string]int64   `json:"requests"`
	Errors        map[string]int64   `json:"errors"`
	MeanLatencyMS map[string]float64 `json:"mean_latency_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latency:      make(map[string]time.Duration),
	}
}

// RecordRequest counts a request by route, method and status.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, strconv.Itoa(status))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latency[key] += duration
}

// RecordError counts an error by route, method and error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := pathKey(path, method, code)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Requests:      map[string]int64{},
		Errors:        map[string]int64{},
		MeanLatencyMS: map[string]float64{},
	}
	if m == nil {
		return snapshot
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		snapshot.Requests[key] = count
		snapshot.MeanLatencyMS[key] = float64(m.latency[key].Microseconds()) / 1000 / float64(count)
	}
	for key, count := range m.errorCount {
		snapshot.Errors[key] = count
	}
	return snapshot
}

func pathKey(path, method, outcome string) string {
	return path + "|" + method + "|" + outcome
}
