package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	Requests          int64
	ArticlesFetched   int64
	ArticlesServed    int64
	DuplicatesRemoved int64
	CacheHits         int64
	CacheMisses       int64
	UpstreamErrors    int64
	QuotaRejections   int64
	ImagesEnriched    int64
	DigestsSent       int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) IncrementRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) IncrementCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *Metrics) IncrementUpstreamErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpstreamErrors++
}

func (m *Metrics) IncrementQuotaRejections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuotaRejections++
}

func (m *Metrics) IncrementDigestsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsSent++
}

func (m *Metrics) AddImagesEnriched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesEnriched += int64(n)
}

// RecordBatch counts one pipeline run: fetched is the raw input size,
// served the number of articles produced.
func (m *Metrics) RecordBatch(fetched, served, duplicates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(fetched)
	m.ArticlesServed += int64(served)
	m.DuplicatesRemoved += int64(duplicates)
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hitRate := 0.0
	if lookups := m.CacheHits + m.CacheMisses; lookups > 0 {
		hitRate = float64(m.CacheHits) / float64(lookups)
	}

	return map[string]interface{}{
		"requests":                   m.Requests,
		"articles_fetched":           m.ArticlesFetched,
		"articles_served":            m.ArticlesServed,
		"duplicates_removed":         m.DuplicatesRemoved,
		"cache_hits":                 m.CacheHits,
		"cache_misses":               m.CacheMisses,
		"cache_hit_rate":             hitRate,
		"upstream_errors":            m.UpstreamErrors,
		"quota_rejections":           m.QuotaRejections,
		"images_enriched":            m.ImagesEnriched,
		"digests_sent":               m.DigestsSent,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
