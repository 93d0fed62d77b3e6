package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the counters of one mesh generation run.
type Registry struct {
	registry *prometheus.Registry

	SegmentsTotal      prometheus.Gauge
	PolygonsTotal      prometheus.Gauge
	SeedsTotal         *prometheus.GaugeVec
	RiverPointsPruned  prometheus.Counter
	GridPointsCleared  prometheus.Counter
	DuplicateSeeds     prometheus.Counter
	UnboundedCells     *prometheus.CounterVec
	DegenerateSegments prometheus.Counter
	EmptyLinks         prometheus.Counter
	ConfigCorrections  prometheus.Counter
	OneSidedBanks      prometheus.Counter
	StageDuration      *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.SegmentsTotal = f.NewGauge(prometheus.GaugeOpts{
		Name: "hydromesh_segments_total",
		Help: "Number of river segments, outlet sentinel excluded",
	})
	r.PolygonsTotal = f.NewGauge(prometheus.GaugeOpts{
		Name: "hydromesh_polygons_total",
		Help: "Number of numbered mesh polygons",
	})
	r.SeedsTotal = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hydromesh_seeds_total",
		Help: "Tessellation seeds per category",
	}, []string{"category"})
	r.RiverPointsPruned = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_river_points_pruned_total",
		Help: "River points suppressed by spacing pruning",
	})
	r.GridPointsCleared = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_grid_points_cleared_total",
		Help: "Grid points removed for being too close to a river point",
	})
	r.DuplicateSeeds = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_duplicate_seeds_total",
		Help: "Seeds dropped because an identical seed was already present",
	})
	r.UnboundedCells = f.NewCounterVec(prometheus.CounterOpts{
		Name: "hydromesh_unbounded_cells_total",
		Help: "River or grid seeds whose Voronoi cell was unbounded",
	}, []string{"category"})
	r.DegenerateSegments = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_degenerate_segments_total",
		Help: "Segments skipped for a zero-length flow direction",
	})
	r.EmptyLinks = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_empty_links_total",
		Help: "Channel links without any channel cell",
	})
	r.ConfigCorrections = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_config_corrections_total",
		Help: "Configuration values corrected at load time",
	})
	r.OneSidedBanks = f.NewCounter(prometheus.CounterOpts{
		Name: "hydromesh_one_sided_banks_total",
		Help: "Segments whose two bank polygons lie on the same side",
	})
	r.StageDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydromesh_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"stage"})
	r.RunsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "hydromesh_runs_total",
		Help: "Pipeline runs by result",
	}, []string{"result"})

	return r
}

// ObserveStage records how long a pipeline stage took.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run as "ok" or "error".
func (r *Registry) RecordRun(err error) {
	if err != nil {
		r.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	r.RunsTotal.WithLabelValues("ok").Inc()
}

// WriteTextfile dumps every metric in the text exposition format, for the
// node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the registry to a scrape handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
