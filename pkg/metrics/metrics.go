package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	LOOKUP_HIT  = "hit"
	LOOKUP_MISS = "miss"
)

var (
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_cache_lookups_total",
			Help: "bitmap cache lookups by result",
		},
		[]string{"result"},
	)
	CacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pc_cache_evictions_total",
			Help: "entries evicted from the bitmap cache",
		},
	)
	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pc_cache_entries",
			Help: "number of bitmaps currently cached",
		},
	)
	PendingLocators = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pc_pending_locators",
			Help: "locators with a queued or in-flight fetch",
		},
	)
	CoalescedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pc_coalesced_requests_total",
			Help: "requests attached to an already pending fetch",
		},
	)
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_fetches_total",
			Help: "fetch operations by locator kind and outcome",
		},
		[]string{"kind", "result"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pc_fetch_duration_seconds",
			Help:    "time spent resolving, decoding and scaling a photo",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_deliveries_total",
			Help: "outcomes delivered to consumers",
		},
		[]string{"result"},
	)
	DiscardedCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pc_discarded_completions_total",
			Help: "completions with no consumer left to notify",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheLookups)
	prometheus.MustRegister(CacheEvictions)
	prometheus.MustRegister(CacheEntries)
	prometheus.MustRegister(PendingLocators)
	prometheus.MustRegister(CoalescedRequests)
	prometheus.MustRegister(Fetches)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(Deliveries)
	prometheus.MustRegister(DiscardedCompletions)
}

// Run serves /metrics on addr until ctx is cancelled.
func Run(ctx context.Context, metricsAddr string) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.Infoln("starting metrics server on ", metricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Errorln("metrics server failed:", err)
	}
}
