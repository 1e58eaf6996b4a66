package observability

import (
	"sort"
	"sync"
)

// Log operations counted by Metrics.
const (
	OpAppend  = "append"
	OpRewrite = "rewrite"
	OpScan    = "scan"
	OpSkip    = "skip"
)

// Metrics provides basic in-memory counters keyed by log name and operation.
type Metrics struct {
	mu         sync.Mutex
	opCount    map[string]int64
	errorCount map[string]int64
}

// Counter is one row of a metrics snapshot.
type Counter struct {
	Key   string
	Value int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		opCount:    make(map[string]int64),
		errorCount: make(map[string]int64),
	}
}

// RecordOperation increments the counter for a successful operation on a log.
func (m *Metrics) RecordOperation(log, op string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opCount[opKey(log, op)]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(log, op, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[opKey(log, op)+"|"+code]++
}

// Operations returns the count recorded for log/op.
func (m *Metrics) Operations(log, op string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opCount[opKey(log, op)]
}

// Errors returns the count recorded for log/op/code.
func (m *Metrics) Errors(log, op, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorCount[opKey(log, op)+"|"+code]
}

// Snapshot returns every counter sorted by key, operations first.
func (m *Metrics) Snapshot() []Counter {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Counter, 0, len(m.opCount)+len(m.errorCount))
	for k, v := range m.opCount {
		out = append(out, Counter{Key: k, Value: v})
	}
	for k, v := range m.errorCount {
		out = append(out, Counter{Key: "error|" + k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func opKey(log, op string) string {
	return log + "|" + op
}
