package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/metrics"
)

// writeBasin writes a 5x5 basin on a 7x7 grid of 100 m cells with one link
// running south along column 3.
func writeBasin(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("epsg: 32633\nthreshold: 50\n")
	b.WriteString("grid: {ncols: 7, nrows: 7, xll: 0, yll: 0, cellsize: 100}\n")
	b.WriteString("hills: [0]\ncells:\n")

	const nHill = 20
	for r := 1; r <= 5; r++ {
		for c := 1; c <= 5; c++ {
			if c == 3 {
				continue
			}
			fmt.Fprintf(&b, "  - {col: %d, row: %d, down: %d, length: 100, elevation: 120, order: 1, acum: 1, hill: 1}\n",
				c, r, nHill+r-1)
		}
	}
	for r := 1; r <= 5; r++ {
		down := nHill + r
		if r == 5 {
			down = -1
		}
		fmt.Fprintf(&b, "  - {col: 3, row: %d, down: %d, length: 100, elevation: %d, order: 1, acum: 100, hill: 1, channel: true}\n",
			r, down, 110-2*r)
	}

	path := filepath.Join(dir, "basin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "hydromesh.yaml")
	data := "segments:\n  threshold: 200\ngrid:\n  stride: 2\noutput:\n  name: small\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", writeConfig(t, dir), "--watershed", writeBasin(t, dir), "--out-dir", out})
	require.NoError(t, root.ExecuteContext(context.Background()))

	mesh, err := os.ReadFile(filepath.Join(out, "small.mesh"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(mesh), "NUMELE\t"))
	assert.FileExists(t, filepath.Join(out, "small.riv"))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"validate", "--watershed", writeBasin(t, dir)})
	assert.NoError(t, root.ExecuteContext(context.Background()))
}

func TestLoadInputsNeedsWatershed(t *testing.T) {
	_, _, err := (&app{}).loadInputs()
	require.Error(t, err)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidInput))
	assert.Equal(t, 2, meshErr.ExitCode(err))
}

func newTestHandler(t *testing.T) *meshHandler {
	dir := t.TempDir()
	a := &app{configPath: writeConfig(t, dir), watershedPath: writeBasin(t, dir)}
	cfg, err := a.loadConfig()
	require.NoError(t, err)
	ws, dem, err := a.loadInputs()
	require.NoError(t, err)
	return &meshHandler{cfg: cfg, ws: ws, dem: dem, level: zapcore.WarnLevel, metrics: metrics.NewRegistry()}
}

func TestMeshHandler(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="mesh-form"`)
	assert.Contains(t, rec.Body.String(), "river seeds")

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post(url.Values{"adjacency": {"vertex"}, "stride": {"1"}}).Code)
	assert.Equal(t, http.StatusBadRequest, post(url.Values{"threshold": {"abc"}}).Code)
	assert.Equal(t, http.StatusBadRequest, post(url.Values{"threshold": {"0"}}).Code)
	assert.Equal(t, http.StatusBadRequest, post(url.Values{"adjacency": {"delaunay"}}).Code)
}

func TestServeMuxMetrics(t *testing.T) {
	mux := newServeMux(newTestHandler(t))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hydromesh_runs_total{result="ok"} 1`)
	assert.Contains(t, body, "hydromesh_polygons_total")
}
