package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnhancerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillsync_enhancer_fallbacks_total",
			Help: "Optional enhancer failures that fell back to rule-based behavior",
		},
		[]string{"enhancer"},
	)

	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillsync_match_requests_total",
			Help: "FindMatches calls by seeker role and outcome",
		},
		[]string{"role", "outcome"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillsync_match_duration_seconds",
			Help:    "Duration of FindMatches computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"role"},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillsync_candidates_scored_total",
			Help: "Candidates run through the match scorer",
		},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillsync_match_cache_total",
			Help: "Match cache lookups by result",
		},
		[]string{"result"},
	)

	FeedbackTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillsync_feedback_tasks_total",
			Help: "Feedback tasks by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillsync_ws_clients",
			Help: "Connected websocket clients",
		},
	)
)
