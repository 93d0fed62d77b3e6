package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-hydromesh/pkg/export"
	"github.com/0x0FACED/go-hydromesh/pkg/preview"
)

// Write exports res to the paths of its config: the mesh and river files,
// then the shapefiles and the preview page when enabled.
func (r *Runner) Write(ctx context.Context, res *Result) error {
	return r.stage(ctx, res, StageExport, func() error {
		cfg := &res.Config
		log := r.Logger.With(zap.String("run", res.RunID))

		if err := ensureDir(cfg.Output.Dir); err != nil {
			return err
		}

		written := func(path string) {
			res.Files = append(res.Files, path)
			log.Info("[export] file written", zap.String("path", path))
		}

		path := cfg.MeshPath()
		err := export.WriteFile(path, func(w io.Writer) error {
			return export.WriteMesh(w, res.Mesh.Polygons, cfg.Segments.ChannelDepth)
		})
		if err != nil {
			return err
		}
		written(path)

		path = cfg.RiverPath()
		err = export.WriteFile(path, func(w io.Writer) error {
			return export.WriteRiver(w, res.Network, res.Geoms, res.Banks)
		})
		if err != nil {
			return err
		}
		written(path)

		if cfg.Output.Shapes {
			if err := export.WriteRiverShape(cfg.RiverShapePath(), res.Network, res.Geoms, res.Banks); err != nil {
				return err
			}
			written(cfg.RiverShapePath())
			if err := export.WriteMeshShape(cfg.MeshShapePath(), res.Mesh.Polygons); err != nil {
				return err
			}
			written(cfg.MeshShapePath())
		}

		if cfg.Output.Preview {
			path = cfg.PreviewPath()
			if err := r.WritePreview(path, res); err != nil {
				return err
			}
			written(path)
		}
		return nil
	})
}

// Scene returns what the preview draws for res.
func (res *Result) Scene() preview.Scene {
	return preview.Scene{
		Title:    res.Config.Output.Name,
		Seeds:    res.Seeds,
		Polygons: res.Mesh.Polygons,
		Network:  res.Network,
	}
}

// WritePreview renders the preview page of res, with the log captured so
// far, to path.
func (r *Runner) WritePreview(path string, res *Result) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return export.WriteFile(path, func(w io.Writer) error {
		return preview.Render(w, res.Scene(), r.Logger.HTML())
	})
}
