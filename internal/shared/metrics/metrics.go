package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	taskStartedTotal   atomic.Uint64
	taskCompletedTotal atomic.Uint64
	taskFailedTotal    atomic.Uint64
	taskCacheHitTotal  atomic.Uint64

	llmRequestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncTaskStarted increments the started counter.
func IncTaskStarted() {
	taskStartedTotal.Add(1)
}

// IncTaskCompleted increments the completed counter.
func IncTaskCompleted() {
	taskCompletedTotal.Add(1)
}

// IncTaskFailed increments the failed counter.
func IncTaskFailed() {
	taskFailedTotal.Add(1)
}

// IncTaskCacheHit increments the cache-hit counter.
func IncTaskCacheHit() {
	taskCacheHitTotal.Add(1)
}

// ObserveLLMRequestDurationMs records a completion-call duration in milliseconds.
func ObserveLLMRequestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmRequestDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "task_started_total", "Total document tasks started", taskStartedTotal.Load())
	writeCounter(&buf, "task_completed_total", "Total document tasks completed", taskCompletedTotal.Load())
	writeCounter(&buf, "task_failed_total", "Total document tasks failed", taskFailedTotal.Load())
	writeCounter(&buf, "task_cache_hit_total", "Total tasks served from the artifact cache", taskCacheHitTotal.Load())
	writeHistogram(&buf, "llm_request_duration_ms", "Completion API call duration in milliseconds", llmRequestDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
