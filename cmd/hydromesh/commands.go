package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/pipeline"
)

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build the mesh and write the element files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			log, err := a.newLogger(cfg, cfg.Output.Preview)
			if err != nil {
				return err
			}
			defer log.Close()

			ws, dem, err := a.loadInputs()
			if err != nil {
				return err
			}

			res, err := pipeline.NewRunner(cfg, log, nil).Execute(cmd.Context(), ws, dem)
			if err != nil {
				return err
			}
			log.Info("[cli] done",
				zap.String("run", res.RunID),
				zap.Int("segments", res.Network.Len()),
				zap.Int("polygons", len(res.Mesh.Polygons)),
				zap.Strings("files", res.Files))
			return nil
		},
	}
}

func (a *app) newPreviewCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Build the mesh and render it to an HTML page without writing element files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			log, err := a.newLogger(cfg, true)
			if err != nil {
				return err
			}
			defer log.Close()

			ws, dem, err := a.loadInputs()
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(cfg, log, nil)
			res, err := runner.Build(cmd.Context(), ws, dem)
			if err != nil {
				return err
			}
			if out == "" {
				out = res.Config.PreviewPath()
			}
			if err := runner.WritePreview(out, res); err != nil {
				return err
			}
			log.Info("[cli] preview written", zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "page path, defaults to <out-dir>/<name>_preview.html")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and the input files without building anything",
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

			for _, w := range cfg.Normalize() {
				log.Warn("[cli] config corrected", zap.String("detail", w))
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log.Info("[cli] config ok", zap.String("adjacency", cfg.Mesh.Adjacency), zap.Float64("threshold", cfg.Segments.Threshold))

			if a.watershedPath == "" {
				return nil
			}
			ws, dem, err := a.loadInputs()
			if err != nil {
				return err
			}
			log.Info("[cli] watershed ok",
				zap.Int("cells", ws.NumCells()),
				zap.Int("hills", ws.NumHills()),
				zap.Int("epsg", ws.EPSG()))
			if dem != nil {
				g := ws.Grid()
				if dem.NCols != g.NCols || dem.NRows != g.NRows || dem.CellSize != g.CellSize {
					log.Warn("[cli] DEM grid differs from the watershed grid",
						zap.Int("dem_cols", dem.NCols), zap.Int("dem_rows", dem.NRows),
						zap.Int("ws_cols", g.NCols), zap.Int("ws_rows", g.NRows))
				} else {
					log.Info("[cli] dem ok", zap.Int("cols", dem.NCols), zap.Int("rows", dem.NRows))
				}
			}
			return nil
		},
	}
}
