package chatbot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
	outcomeBusy   = "busy"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egpt_submissions_total",
			Help: "Total number of non-empty submissions by outcome",
		},
		[]string{"outcome"},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "egpt_search_duration_seconds",
			Help:    "Duration of search endpoint requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	messagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "egpt_messages_appended_total",
			Help: "Total number of transcript messages appended",
		},
		[]string{"role", "kind"},
	)
)
