// Package metrics exposes Prometheus collectors for crawl and classification runs.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	githubRequestsTotal     *prometheus.CounterVec
	githubRateRemaining     prometheus.Gauge
	githubThrottleWaitTotal prometheus.Counter
	crawlPagesTotal         prometheus.Counter
	repositoriesTotal       *prometheus.CounterVec
	licenseFilesTotal       *prometheus.CounterVec
	harvestFailuresTotal    prometheus.Counter
	classifierRunsTotal     *prometheus.CounterVec
	licenseTagsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		githubRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghlicense_github_requests_total",
				Help: "Total number of GitHub API requests, labeled by status code.",
			},
			[]string{"code"},
		)

		githubRateRemaining = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ghlicense_github_rate_remaining",
				Help: "Remaining GitHub API requests reported by the last response.",
			},
		)

		githubThrottleWaitTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ghlicense_github_throttle_waits_total",
				Help: "Total number of throttled wait cycles.",
			},
		)

		crawlPagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ghlicense_crawl_pages_total",
				Help: "Total number of repository listing pages processed.",
			},
		)

		repositoriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghlicense_repositories_total",
				Help: "Total number of repository inserts, labeled by result.",
			},
			[]string{"result"},
		)

		licenseFilesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghlicense_license_files_total",
				Help: "Total number of license file inserts, labeled by result.",
			},
			[]string{"result"},
		)

		harvestFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ghlicense_harvest_failures_total",
				Help: "Total number of candidate files omitted because their fetch failed.",
			},
		)

		classifierRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghlicense_classifier_runs_total",
				Help: "Total number of classifier invocations, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		licenseTagsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghlicense_license_tags_total",
				Help: "Total number of license tag inserts, labeled by result.",
			},
			[]string{"result"},
		)
	})
}

// ObserveGitHubRequest counts one API request. code is 0 when no response arrived.
func ObserveGitHubRequest(code int) {
	Init()
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	githubRequestsTotal.WithLabelValues(label).Inc()
}

// SetRateRemaining records the last reported rate budget.
func SetRateRemaining(remaining int) {
	Init()
	githubRateRemaining.Set(float64(remaining))
}

// ObserveThrottleWait counts one throttled wait cycle.
func ObserveThrottleWait() {
	Init()
	githubThrottleWaitTotal.Inc()
}

// ObservePage counts one processed listing page.
func ObservePage() {
	Init()
	crawlPagesTotal.Inc()
}

// ObserveRepository counts a repository insert result.
func ObserveRepository(result string) {
	Init()
	repositoriesTotal.WithLabelValues(result).Inc()
}

// ObserveLicenseFile counts a license file insert result.
func ObserveLicenseFile(result string) {
	Init()
	licenseFilesTotal.WithLabelValues(result).Inc()
}

// ObserveHarvestFailure counts one omitted candidate file.
func ObserveHarvestFailure() {
	Init()
	harvestFailuresTotal.Inc()
}

// ObserveClassifierRun counts a classifier invocation outcome.
func ObserveClassifierRun(outcome string) {
	Init()
	classifierRunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLicenseTag counts a license tag insert result.
func ObserveLicenseTag(result string) {
	Init()
	licenseTagsTotal.WithLabelValues(result).Inc()
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// NewRouter serves /metrics and /healthz.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", Handler())
	return r
}
