package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Normalize())
	assert.Equal(t, 400.0, cfg.Segments.Threshold)
	assert.Equal(t, []int{1, 5}, cfg.Grid.BorderScales)
	assert.Equal(t, AdjacencyRidge, cfg.Mesh.Adjacency)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
segments:
  threshold: 250
grid:
  stride: 4
  border_scales: [2]
mesh:
  adjacency: vertex
output:
  name: upper
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250.0, cfg.Segments.Threshold)
	assert.Equal(t, 20.0, cfg.Segments.ChannelDepth)
	assert.Equal(t, 4, cfg.Grid.Stride)
	assert.Equal(t, []int{2}, cfg.Grid.BorderScales)
	assert.Equal(t, AdjacencyVertex, cfg.Mesh.Adjacency)
	assert.Equal(t, filepath.Join(".", "upper.mesh"), cfg.MeshPath())
	assert.Equal(t, filepath.Join(".", "upper.riv"), cfg.RiverPath())
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[river_points]
distance = 80.0
min_spacing = 30.0

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.RiverPoints.Distance)
	assert.Equal(t, 30.0, cfg.RiverPoints.MinSpacing)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	_, err := Load(path)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidConfig))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeIO))
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"HYDROMESH_SEGMENT_THRESHOLD": "120.5",
		"HYDROMESH_GRID_STRIDE":       "3",
		"HYDROMESH_LOG_LEVEL":         "WARN",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, 120.5, cfg.Segments.Threshold)
	assert.Equal(t, 3, cfg.Grid.Stride)
	assert.Equal(t, "warn", cfg.Log.Level)

	env["HYDROMESH_GRID_STRIDE"] = "three"
	err := cfg.applyEnv(lookup)
	assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidConfig))
}

func TestNormalizeCorrectsSpacing(t *testing.T) {
	cfg := Default()
	cfg.RiverPoints.MinSpacing = 150

	warnings := cfg.Normalize()
	require.Len(t, warnings, 1)
	assert.Equal(t, 50.0, cfg.RiverPoints.MinSpacing)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"threshold", func(c *Config) { c.Segments.Threshold = 0 }, "Threshold"},
		{"stride", func(c *Config) { c.Grid.Stride = 0 }, "Stride"},
		{"adjacency", func(c *Config) { c.Mesh.Adjacency = "delaunay" }, "Adjacency"},
		{"scales", func(c *Config) { c.Grid.BorderScales = nil }, "BorderScales"},
		{"name", func(c *Config) { c.Output.Name = "" }, "Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, meshErr.Is(err, meshErr.ErrCodeInvalidConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
