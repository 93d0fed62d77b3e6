// Package pipeline runs the mesh generation stages in order:
// topology -> geometry -> river points -> grid points -> mesh -> banks ->
// export.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/config"
	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/mesh"
	"github.com/0x0FACED/go-hydromesh/pkg/meshpoints"
	"github.com/0x0FACED/go-hydromesh/pkg/metrics"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/topology"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

// Stage names, also used as the stage label of the duration histogram.
const (
	StageTopology    = "topology"
	StageGeometry    = "geometry"
	StageRiverPoints = "river_points"
	StageGridPoints  = "grid_points"
	StageMesh        = "mesh"
	StageBanks       = "banks"
	StageExport      = "export"
)

// Runner holds what every run shares. It keeps no state between runs.
type Runner struct {
	Config  config.Config
	Logger  *logger.ZapLogger
	Metrics *metrics.Registry
}

// NewRunner creates a runner. A nil logger discards logs and a nil
// registry gets a fresh one.
func NewRunner(cfg config.Config, log *logger.ZapLogger, reg *metrics.Registry) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Runner{Config: cfg, Logger: log, Metrics: reg}
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Config   config.Config
	Network  *topology.Network
	Geoms    []topology.Geometry
	River    meshpoints.RiverResult
	Grid     meshpoints.GridResult
	Seeds    []meshpoints.Point
	Mesh     *mesh.Mesh
	Banks    []mesh.Bank
	OneSided int
	// Files lists the written outputs in write order.
	Files     []string
	Durations map[string]time.Duration
}

// Execute builds the mesh and writes every configured output. The run is
// counted in the registry, which is dumped to Output.Metrics when set.
func (r *Runner) Execute(ctx context.Context, ws watershed.Watershed, dem *raster.DEM) (res *Result, err error) {
	defer func() {
		r.Metrics.RecordRun(err)
		if path := r.Config.Output.Metrics; path != "" {
			if werr := r.Metrics.WriteTextfile(path); werr != nil {
				r.Logger.Error("[run] metrics textfile not written", zap.String("path", path), zap.Error(werr))
			}
		}
	}()

	res, err = r.Build(ctx, ws, dem)
	if err != nil {
		return nil, err
	}
	if err := r.Write(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Build runs every stage but export and returns the in-memory result.
func (r *Runner) Build(ctx context.Context, ws watershed.Watershed, dem *raster.DEM) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Config:    r.Config,
		Durations: make(map[string]time.Duration),
	}
	log := r.Logger.With(zap.String("run", res.RunID))
	cfg := &res.Config

	for _, w := range cfg.Normalize() {
		log.Warn("[run] config corrected", zap.String("detail", w))
		r.Metrics.ConfigCorrections.Inc()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	adjacency, err := mesh.NewAdjacency(cfg.Mesh.Adjacency)
	if err != nil {
		return nil, err
	}
	if dem == nil {
		log.Warn("[run] no DEM given, polygon elevations are left at 0")
	}
	log.Info("[run] run started", zap.Int("cells", ws.NumCells()), zap.Int("hills", ws.NumHills()))

	err = r.stage(ctx, res, StageTopology, func() error {
		net, err := topology.Assemble(ws, topology.Options{
			DecomposeOptions: topology.DecomposeOptions{
				Threshold:    cfg.Segments.Threshold,
				ChannelDepth: cfg.Segments.ChannelDepth,
			},
			ChannelSensitivity: cfg.Segments.ChannelSensitivity,
			Logger:             log,
		})
		if err != nil {
			return err
		}
		res.Network = net
		r.Metrics.SegmentsTotal.Set(float64(net.Len()))
		r.Metrics.EmptyLinks.Add(float64(net.EmptyLinks))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, res, StageGeometry, func() error {
		geoms, err := topology.Measure(ws, res.Network)
		res.Geoms = geoms
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, res, StageRiverPoints, func() error {
		res.River = meshpoints.RiverPoints(res.Network, res.Geoms, meshpoints.RiverOptions{
			Distance:   cfg.RiverPoints.Distance,
			Clean:      cfg.RiverPoints.Clean,
			MinSpacing: cfg.RiverPoints.MinSpacing,
			Logger:     log,
		})
		r.Metrics.RiverPointsPruned.Add(float64(res.River.Pruned))
		r.Metrics.DegenerateSegments.Add(float64(len(res.River.Degenerate)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, res, StageGridPoints, func() error {
		res.Grid = meshpoints.GridPoints(ws, res.River.Points, meshpoints.GridOptions{
			Stride:             cfg.Grid.Stride,
			BorderIterations:   cfg.Grid.BorderIterations,
			BorderScales:       cfg.Grid.BorderScales,
			ClearRiver:         cfg.Grid.ClearRiver,
			MinDistanceToRiver: cfg.Grid.MinDistanceToRiver,
			Logger:             log,
		})
		r.Metrics.GridPointsCleared.Add(float64(res.Grid.Cleared))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, res, StageMesh, func() error {
		seeds := make([]meshpoints.Point, 0, len(res.River.Points)+len(res.Grid.Interior)+len(res.Grid.Narrow()))
		seeds = append(seeds, res.River.Points...)
		seeds = append(seeds, res.Grid.Interior...)
		seeds = append(seeds, res.Grid.Narrow()...)
		res.Seeds = seeds

		res.Mesh = mesh.Build(seeds, dem, mesh.Options{
			Adjacency:       adjacency,
			ElevationWindow: cfg.Mesh.ElevationWindow,
			Logger:          log,
		})
		if len(res.Mesh.Polygons) == 0 {
			return meshErr.New(meshErr.ErrCodeDegenerateGeometry, "no bounded polygon in the tessellation")
		}

		for _, cat := range []meshpoints.Category{meshpoints.River, meshpoints.Grid, meshpoints.Boundary} {
			r.Metrics.SeedsTotal.WithLabelValues(cat.String()).Set(0)
		}
		for _, s := range res.Mesh.Seeds {
			r.Metrics.SeedsTotal.WithLabelValues(s.Category.String()).Inc()
		}
		for cat, n := range res.Mesh.Unbounded {
			r.Metrics.UnboundedCells.WithLabelValues(cat.String()).Add(float64(n))
		}
		r.Metrics.DuplicateSeeds.Add(float64(res.Mesh.Duplicates))
		r.Metrics.PolygonsTotal.Set(float64(len(res.Mesh.Polygons)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, res, StageBanks, func() error {
		res.Banks = mesh.AssignBanks(res.Network, res.Geoms, res.Mesh.Polygons, mesh.BankOptions{
			Orient: cfg.Mesh.OrientBanks,
			Logger: log,
		})
		for _, b := range res.Banks {
			if b.OneSided {
				res.OneSided++
			}
		}
		r.Metrics.OneSidedBanks.Add(float64(res.OneSided))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("[run] mesh ready",
		zap.Int("segments", res.Network.Len()),
		zap.Int("polygons", len(res.Mesh.Polygons)))
	return res, nil
}

// stage times fn under name. A cancelled ctx stops the run before fn.
func (r *Runner) stage(ctx context.Context, res *Result, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	res.Durations[name] = d
	r.Metrics.ObserveStage(name, d)
	if err != nil {
		r.Logger.Error("[run] stage failed", zap.String("run", res.RunID), zap.String("stage", name), zap.Error(err))
	}
	return err
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return meshErr.Wrap(meshErr.ErrCodeIO, err, "create output dir %s", dir)
	}
	return nil
}
