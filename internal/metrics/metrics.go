package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joblens_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	IngestRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "joblens_ingest_run_duration_seconds",
			Help:    "Duration of each ingestion run in seconds.",
			Buckets: []float64{60, 300, 900, 1800, 3600},
		},
	)
	IngestStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "joblens_ingest_step_duration_seconds",
			Help:       "Duration of each step in the posting ingestion process.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	IngestedPostingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "joblens_postings_ingested_total",
			Help: "Total number of postings persisted by the pipeline.",
		},
	)
	SkippedPostingsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joblens_postings_skipped_total",
			Help: "Total number of postings skipped by the pipeline.",
		},
		[]string{"cause"},
	)
	RetiredDuplicatesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "joblens_postings_duplicates_retired_total",
			Help: "Total number of postings retired as duplicates.",
		},
	)
	MatchesCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "joblens_matches_created_total",
			Help: "Total number of job matches persisted.",
		},
	)
	MatchRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "joblens_match_run_duration_seconds",
			Help:    "Duration of each batch matching run in seconds.",
			Buckets: []float64{10, 60, 300, 900, 1800},
		},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(IngestRunDuration)
	prometheus.MustRegister(IngestStepDuration)
	prometheus.MustRegister(IngestedPostingsCounter)
	prometheus.MustRegister(SkippedPostingsCounter)
	prometheus.MustRegister(RetiredDuplicatesCounter)
	prometheus.MustRegister(MatchesCreatedCounter)
	prometheus.MustRegister(MatchRunDuration)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
