package metrics

import (
	"sync"
	"time"
)

// Metrics collects in-process counters for a single pipeline run.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsProcessed    int64
	ItemsAdded        int64
	ItemsUpdated      int64
	DuplicatesSkipped int64
	FetchErrors       int64
	EntriesSkipped    int64
	LLMRequests       int64

	// Timings
	LastProcessingTime  time.Duration
	TotalProcessingTime time.Duration
	ProcessingCount     int64

	// Status
	LastRunTime   time.Time
	LastError     string
	LastErrorTime time.Time
}

var Global = &Metrics{}

func (m *Metrics) AddProcessed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsProcessed += int64(n)
}

func (m *Metrics) AddAdded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsAdded += int64(n)
}

func (m *Metrics) AddUpdated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsUpdated += int64(n)
}

func (m *Metrics) AddDuplicates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped += int64(n)
}

func (m *Metrics) IncrementFetchErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErrors++
}

func (m *Metrics) IncrementEntriesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesSkipped++
}

func (m *Metrics) IncrementLLMRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LLMRequests++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_processed":         m.ItemsProcessed,
		"items_added":             m.ItemsAdded,
		"items_updated":           m.ItemsUpdated,
		"duplicates_skipped":      m.DuplicatesSkipped,
		"fetch_errors":            m.FetchErrors,
		"entries_skipped":         m.EntriesSkipped,
		"llm_requests":            m.LLMRequests,
		"last_processing_time_ms": m.LastProcessingTime.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error":              m.LastError,
	}
}
