package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/0x0FACED/go-hydromesh/pkg/config"
	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/metrics"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

var testGrid = raster.Header{NCols: 20, NRows: 20, XLL: 500000, YLL: 4000000, CellSize: 50, NoData: -9999}

// valleyBasin covers cols and rows 3..16 of testGrid with one link running
// south along column 10. Hillslope cells drain into the channel cell of
// their row.
func valleyBasin(t *testing.T) *watershed.Basin {
	t.Helper()
	const lo, hi, channelCol = 3, 17, 10

	var cells []watershed.Cell
	nHill := (hi - lo) * (hi - lo - 1)
	for r := lo; r < hi; r++ {
		for c := lo; c < hi; c++ {
			if c == channelCol {
				continue
			}
			cells = append(cells, watershed.Cell{
				Col: c, Row: r, Down: nHill + r - lo, Length: 50,
				Elevation: 1010, Order: 1, Accumulation: 1, Hill: 1,
			})
		}
	}
	for r := lo; r < hi; r++ {
		cells = append(cells, watershed.Cell{
			Col: channelCol, Row: r, Down: len(cells) + 1, Length: 50,
			Elevation: 1000 - 5*float64(r-lo), Order: 1, Accumulation: 100, Hill: 1, Channel: true,
		})
	}
	cells[len(cells)-1].Down = watershed.Outlet

	b, err := watershed.NewBasin(testGrid, 32633, 50, cells, []int{0})
	require.NoError(t, err)
	return b
}

func valleyDEM() *raster.DEM {
	dem := raster.NewDEM(testGrid)
	for r := 0; r < testGrid.NRows; r++ {
		for c := 0; c < testGrid.NCols; c++ {
			dem.Set(c, r, 1100-float64(r))
		}
	}
	return dem
}

func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.Segments.Threshold = 200
	cfg.Grid.Stride = 4
	cfg.Output.Dir = dir
	cfg.Output.Name = "valley"
	return cfg
}

func TestExecuteWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Output.Shapes = true
	cfg.Output.Preview = true
	cfg.Output.Metrics = filepath.Join(dir, "valley.prom")

	reg := metrics.NewRegistry()
	res, err := NewRunner(cfg, nil, reg).Execute(context.Background(), valleyBasin(t), valleyDEM())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Network.Len())
	require.NotEmpty(t, res.Mesh.Polygons)
	for id := 1; id < len(res.Banks); id++ {
		assert.NotZero(t, res.Banks[id].Left, "segment %d", id)
	}
	for _, stage := range []string{StageTopology, StageGeometry, StageRiverPoints, StageGridPoints, StageMesh, StageBanks, StageExport} {
		assert.Contains(t, res.Durations, stage)
	}

	assert.Equal(t, []string{
		cfg.MeshPath(), cfg.RiverPath(), cfg.RiverShapePath(), cfg.MeshShapePath(), cfg.PreviewPath(),
	}, res.Files)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}
	assert.FileExists(t, filepath.Join(dir, "valley_mesh.dbf"))

	riv, err := os.ReadFile(cfg.RiverPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(riv), "NUMRIV\t4\n"))

	assert.Equal(t, 4.0, testutil.ToFloat64(reg.SegmentsTotal))
	assert.Equal(t, float64(len(res.Mesh.Polygons)), testutil.ToFloat64(reg.PolygonsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(len(res.River.Points)), testutil.ToFloat64(reg.SeedsTotal.WithLabelValues("river")))

	prom, err := os.ReadFile(cfg.Output.Metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "hydromesh_segments_total 4")
}

func TestExecuteIsDeterministic(t *testing.T) {
	ws := valleyBasin(t)
	dem := valleyDEM()

	var cfgs []config.Config
	for i := 0; i < 2; i++ {
		cfg := testConfig(t.TempDir())
		_, err := NewRunner(cfg, nil, nil).Execute(context.Background(), ws, dem)
		require.NoError(t, err)
		cfgs = append(cfgs, cfg)
	}

	for _, path := range []func(*config.Config) string{(*config.Config).MeshPath, (*config.Config).RiverPath} {
		a, err := os.ReadFile(path(&cfgs[0]))
		require.NoError(t, err)
		b, err := os.ReadFile(path(&cfgs[1]))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestBuildCorrectsSpacing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.RiverPoints.MinSpacing = 150

	reg := metrics.NewRegistry()
	res, err := NewRunner(cfg, nil, reg).Build(context.Background(), valleyBasin(t), valleyDEM())
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Config.RiverPoints.MinSpacing)
	assert.Equal(t, 150.0, cfg.RiverPoints.MinSpacing)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ConfigCorrections))
	assert.Empty(t, res.Files)
}

func TestBuildWithoutDEM(t *testing.T) {
	log, err := logger.New(logger.Options{Level: zapcore.InfoLevel, Console: io.Discard, Capture: true})
	require.NoError(t, err)

	res, err := NewRunner(testConfig(t.TempDir()), log, nil).Build(context.Background(), valleyBasin(t), nil)
	require.NoError(t, err)
	for _, p := range res.Mesh.Polygons {
		assert.Zero(t, p.Elevation)
	}

	logs := log.HTML()
	assert.Contains(t, logs, "[run] no DEM given")
	assert.Contains(t, logs, "[run] run started")
	assert.Contains(t, logs, "[run] mesh ready")
}

func TestExecuteRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Segments.Threshold = 0

	reg := metrics.NewRegistry()
	_, err := NewRunner(cfg, nil, reg).Execute(context.Background(), valleyBasin(t), valleyDEM())
	require.Error(t, err)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidConfig))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues("error")))
}

func TestExecuteStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(testConfig(dir), nil, nil).Execute(ctx, valleyBasin(t), valleyDEM())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(dir, "valley.mesh"))
}
