package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scality/backbeat/shared-loading/pkg/counter/outcome"
	"github.com/scality/backbeat/shared-loading/pkg/loading"
	"github.com/scality/backbeat/shared-loading/pkg/types"
	log "github.com/sirupsen/logrus"
)

type (
	Exporter struct {
		Registry *prometheus.Registry

		mu      sync.Mutex
		started bool
	}

	GaugeVecSet struct {
		// RunningGauge is the number of tasks in flight per tracker
		RunningGauge *prometheus.GaugeVec
		// LoadingGauge is 1 while a tracker is loading, 0 otherwise
		LoadingGauge *prometheus.GaugeVec
		// OutcomeGauge mirrors the outcome counters of each tracker, plus
		// their sum under AllTrackers
		OutcomeGauge *prometheus.GaugeVec

		total *outcome.Set
	}
)

const (
	MetricsPath = "/metrics"
	StatusPath  = "/status"

	// AllTrackers is the tracker label of the aggregated outcomes
	AllTrackers = "all"

	shutdownTimeout = 5 * time.Second
)

var ErrAlreadyStarted = errors.New("exporter already started")

func NewExporter() *Exporter {
	return &Exporter{
		Registry: prometheus.NewRegistry(),
	}
}

func (e *Exporter) NewGaugeVecSet() *GaugeVecSet {
	var (
		runningGaugeOpts = prometheus.GaugeOpts{
			Namespace: "default",
			Subsystem: "sharedloading",
			Name:      "running_tasks",
			Help:      "Number of tasks currently in flight",
		}

		loadingGaugeOpts = prometheus.GaugeOpts{
			Namespace: "default",
			Subsystem: "sharedloading",
			Name:      "loading",
			Help:      "Whether at least one task is in flight",
		}

		outcomeGaugeOpts = prometheus.GaugeOpts{
			Namespace: "default",
			Subsystem: "sharedloading",
			Name:      "task_outcomes",
			Help:      "Number of tasks by outcome",
		}
	)

	return &GaugeVecSet{
		RunningGauge: promauto.With(e.Registry).NewGaugeVec(runningGaugeOpts, []string{"tracker"}),
		LoadingGauge: promauto.With(e.Registry).NewGaugeVec(loadingGaugeOpts, []string{"tracker"}),
		OutcomeGauge: promauto.With(e.Registry).NewGaugeVec(outcomeGaugeOpts, []string{"tracker", "outcome"}),

		total: outcome.New(AllTrackers),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

func copyOutcomesToGauge(name string, s *outcome.Serialized, g *prometheus.GaugeVec) {
	m := s.ToMap()
	for _, o := range outcome.All {
		g.WithLabelValues(name, string(o)).Set(float64(m[string(o)]))
	}
}

// CopyTrackersToGauges mirrors every tracker, then the outcomes summed over
// all of them.
func CopyTrackersToGauges(trackers []*loading.Tracker, gvs *GaugeVecSet) {
	gvs.total.Reset()
	tracker := outcome.New("prom")

	for _, t := range trackers {
		status := t.Status()

		gvs.RunningGauge.WithLabelValues(status.Name).Set(float64(status.Running))
		gvs.LoadingGauge.WithLabelValues(status.Name).Set(boolToFloat(status.Loading))
		copyOutcomesToGauge(status.Name, status.Outcomes, gvs.OutcomeGauge)

		tracker.LoadSerialized(status.Outcomes)
		gvs.total.Add(tracker)
	}

	copyOutcomesToGauge(AllTrackers, gvs.total.Serialize(), gvs.OutcomeGauge)
}

func PeriodicPush(ctx context.Context, trackers []*loading.Tracker, gvs *GaugeVecSet, ticker <-chan time.Time, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-ticker:
			if !ok {
				return
			}

			log.WithField("trackers", len(trackers)).Trace("mirroring to prom gauge")

			CopyTrackersToGauges(trackers, gvs)
		}
	}
}

// Snapshot builds the document served on StatusPath.
func Snapshot(trackers []*loading.Tracker) *types.Status {
	s := &types.Status{Trackers: make([]types.TrackerStatus, 0, len(trackers))}

	for _, t := range trackers {
		s.Trackers = append(s.Trackers, t.Status())
	}

	return s
}

func StatusHandler(trackers []*loading.Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		err := json.NewEncoder(w).Encode(Snapshot(trackers))
		if err != nil {
			log.WithError(err).Warn("write status")
		}
	})
}

// Start binds listenOn, then serves tracker metrics and status until ctx is
// done. An Exporter can only be started once.
func (e *Exporter) Start(ctx context.Context, listenOn string, trackers []*loading.Tracker, exportInterval time.Duration, wg *sync.WaitGroup) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}

	l, err := net.Listen("tcp", listenOn)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen on %s", listenOn)
	}

	e.started = true
	ticker := time.NewTicker(exportInterval)

	// stop metrics sync ticker on context cancelation

	wg.Add(1)

	go func() {
		defer wg.Done()

		<-ctx.Done()
		ticker.Stop()
	}()

	// serve /metrics and /status over http

	m := http.NewServeMux()
	m.Handle(MetricsPath, promhttp.HandlerFor(e.Registry, promhttp.HandlerOpts{}))
	m.Handle(StatusPath, StatusHandler(trackers))

	s := http.Server{Handler: m}

	wg.Add(1)

	go func() {
		defer wg.Done()

		err := s.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).WithField("listen", listenOn).Error("metrics server stopped")
		}
	}()

	// shutdown http server on ctx cancelation

	wg.Add(1)

	go func() {
		defer wg.Done()

		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.Shutdown(ctx)
		if err != nil && !errors.Is(err, ctx.Err()) {
			log.WithError(err).Warn("metrics server shutdown")
		}
	}()

	// mirror tracker state to the auto-exported prometheus metrics

	gvs := e.NewGaugeVecSet()
	CopyTrackersToGauges(trackers, gvs)

	wg.Add(1)

	go PeriodicPush(ctx, trackers, gvs, ticker.C, wg)

	return nil
}
