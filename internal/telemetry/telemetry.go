// Package telemetry exposes the service's Prometheus metrics.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/corpusqa/corpusqa/models"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "corpusqa_chat_requests_total",
		Help: "Chat pipeline results by status and error code.",
	}, []string{"status", "code"})

	groundedAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "corpusqa_answers_total",
		Help: "Successful answers split by grounding outcome.",
	}, []string{"grounded"})

	retrievalSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "corpusqa_retrieval_seconds",
		Help:    "Wall time of similarity search calls.",
		Buckets: prometheus.DefBuckets,
	})

	ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "corpusqa_ingested_chunks_total",
		Help: "Chunks written to the vector index.",
	})
)

// ObserveChat records one pipeline result.
func ObserveChat(result models.ChatResult) {
	code := ""
	if result.Code != 0 {
		code = strconv.Itoa(result.Code)
	}
	chatRequests.WithLabelValues(result.Status, code).Inc()
	if result.Status == models.StatusSuccess {
		groundedAnswers.WithLabelValues(strconv.FormatBool(result.Grounded)).Inc()
	}
}

// ObserveRetrieval records the duration of one similarity search.
func ObserveRetrieval(start time.Time) {
	retrievalSeconds.Observe(time.Since(start).Seconds())
}

// ObserveIngest records chunks added to the index.
func ObserveIngest(n int) {
	ingestedChunks.Add(float64(n))
}
