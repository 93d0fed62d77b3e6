package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0x0FACED/go-hydromesh/pkg/config"
	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/metrics"
	"github.com/0x0FACED/go-hydromesh/pkg/pipeline"
	"github.com/0x0FACED/go-hydromesh/pkg/preview"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interactive preview that rebuilds the mesh from form parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			log, err := a.newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer log.Close()

			ws, dem, err := a.loadInputs()
			if err != nil {
				return err
			}

			h := &meshHandler{
				cfg:     cfg,
				ws:      ws,
				dem:     dem,
				level:   logger.ParseLevel(cfg.Log.Level),
				metrics: metrics.NewRegistry(),
			}
			srv := &http.Server{Addr: addr, Handler: newServeMux(h), ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			log.Info("[serve] preview server started", zap.String("addr", addr))

			select {
			case err := <-errCh:
				return meshErr.Wrap(meshErr.ErrCodeIO, err, "listen on %s", addr)
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Info("[serve] preview server stopped")
			return cmd.Context().Err()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// newServeMux routes the preview page and the scrape endpoint of the
// registry the page builds are counted in.
func newServeMux(h *meshHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", h)
	mux.Handle("/metrics", promhttp.HandlerFor(h.metrics.Gatherer(), promhttp.HandlerOpts{}))
	return mux
}

// meshHandler rebuilds the mesh on every request. A POST overrides the base
// config with the form values; the page shows the chart and the request
// log.
type meshHandler struct {
	cfg     config.Config
	ws      watershed.Watershed
	dem     *raster.DEM
	level   zapcore.Level
	metrics *metrics.Registry
}

func (h *meshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfg
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := applyForm(&cfg, r); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	log, err := logger.New(logger.Options{Level: h.level, Console: os.Stderr, Capture: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer log.ClearLogs()

	res, err := pipeline.NewRunner(cfg, log, h.metrics).Build(r.Context(), h.ws, h.dem)
	h.metrics.RecordRun(err)
	if err != nil {
		status := http.StatusInternalServerError
		if meshErr.Is(err, meshErr.ErrCodeInvalidConfig) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := preview.Page(w, preview.Chart(res.Scene()), log.HTML(), true); err != nil {
		log.Error("[serve] page not rendered", zap.Error(err))
	}
}

// applyForm copies the non-empty form fields onto cfg.
func applyForm(cfg *config.Config, r *http.Request) error {
	floats := map[string]*float64{
		"threshold":   &cfg.Segments.Threshold,
		"distance":    &cfg.RiverPoints.Distance,
		"min_spacing": &cfg.RiverPoints.MinSpacing,
	}
	for name, dst := range floats {
		v := r.FormValue(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "form field %s", name)
		}
		*dst = f
	}

	if v := r.FormValue("stride"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "form field stride")
		}
		cfg.Grid.Stride = n
	}
	if v := r.FormValue("adjacency"); v != "" {
		cfg.Mesh.Adjacency = v
	}
	return nil
}
