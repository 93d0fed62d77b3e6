// Package config loads and validates the mesh generator settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// an optional YAML or TOML file (chosen by extension) and HYDROMESH_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
)

// Adjacency strategy names.
const (
	AdjacencyRidge  = "ridge"
	AdjacencyVertex = "vertex"
)

type Config struct {
	Segments    Segments    `yaml:"segments" toml:"segments"`
	RiverPoints RiverPoints `yaml:"river_points" toml:"river_points"`
	Grid        Grid        `yaml:"grid" toml:"grid"`
	Mesh        Mesh        `yaml:"mesh" toml:"mesh"`
	Output      Output      `yaml:"output" toml:"output"`
	Log         Log         `yaml:"log" toml:"log"`
}

// Segments drives the decomposition of channel links.
type Segments struct {
	// Threshold is the target segment length in meters.
	Threshold float64 `yaml:"threshold" toml:"threshold" validate:"gt=0"`
	// ChannelSensitivity lowers the accumulation threshold when a link has
	// no flagged channel cells.
	ChannelSensitivity float64 `yaml:"channel_sensitivity" toml:"channel_sensitivity" validate:"gte=0"`
	// ChannelDepth is subtracted from the mean elevation to get ZMin.
	ChannelDepth float64 `yaml:"channel_depth" toml:"channel_depth" validate:"gte=0"`
}

type RiverPoints struct {
	// Distance from the segment centroid to each bank point.
	Distance float64 `yaml:"distance" toml:"distance" validate:"gt=0"`
	// Clean enables priority pruning of close points.
	Clean bool `yaml:"clean" toml:"clean"`
	// MinSpacing is the pruning radius.
	MinSpacing float64 `yaml:"min_spacing" toml:"min_spacing" validate:"gt=0"`
}

type Grid struct {
	Stride             int     `yaml:"stride" toml:"stride" validate:"gte=1"`
	BorderIterations   int     `yaml:"border_iterations" toml:"border_iterations" validate:"gte=1"`
	BorderScales       []int   `yaml:"border_scales" toml:"border_scales" validate:"min=1,dive,gte=1"`
	ClearRiver         bool    `yaml:"clear_river" toml:"clear_river"`
	MinDistanceToRiver float64 `yaml:"min_distance_to_river" toml:"min_distance_to_river" validate:"gte=0"`
}

type Mesh struct {
	Adjacency string `yaml:"adjacency" toml:"adjacency" validate:"oneof=ridge vertex"`
	// ElevationWindow is the half width of the DEM window sampled per seed.
	ElevationWindow int  `yaml:"elevation_window" toml:"elevation_window" validate:"gte=0,lte=50"`
	OrientBanks     bool `yaml:"orient_banks" toml:"orient_banks"`
}

// Output paths. Empty optional paths disable that output.
type Output struct {
	Dir     string `yaml:"dir" toml:"dir" validate:"required"`
	Name    string `yaml:"name" toml:"name" validate:"required"`
	Shapes  bool   `yaml:"shapes" toml:"shapes"`
	Preview bool   `yaml:"preview" toml:"preview"`
	Metrics string `yaml:"metrics" toml:"metrics"`
}

type Log struct {
	Level    string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	JSONFile string `yaml:"json_file" toml:"json_file"`
}

// Default returns the stock settings: 400 m segments, 100 m bank offset, stride 8.
func Default() Config {
	return Config{
		Segments: Segments{
			Threshold:          400,
			ChannelSensitivity: 10,
			ChannelDepth:       20,
		},
		RiverPoints: RiverPoints{
			Distance:   100,
			Clean:      true,
			MinSpacing: 50,
		},
		Grid: Grid{
			Stride:             8,
			BorderIterations:   3,
			BorderScales:       []int{1, 5},
			ClearRiver:         true,
			MinDistanceToRiver: 100,
		},
		Mesh: Mesh{
			Adjacency:       AdjacencyRidge,
			ElevationWindow: 3,
			OrientBanks:     true,
		},
		Output: Output{
			Dir:  ".",
			Name: "basin",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path on top of Default and applies environment overrides.
// An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, meshErr.Wrap(meshErr.ErrCodeIO, err, "read config %s", path)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return cfg, meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		default:
			return cfg, meshErr.New(meshErr.ErrCodeInvalidConfig, "unsupported config format %q", filepath.Ext(path))
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type envLookup func(string) (string, bool)

func (c *Config) applyEnv(lookup envLookup) error {
	floats := map[string]*float64{
		"HYDROMESH_SEGMENT_THRESHOLD":   &c.Segments.Threshold,
		"HYDROMESH_RIVER_DISTANCE":      &c.RiverPoints.Distance,
		"HYDROMESH_RIVER_MIN_SPACING":   &c.RiverPoints.MinSpacing,
		"HYDROMESH_GRID_MIN_RIVER_DIST": &c.Grid.MinDistanceToRiver,
		"HYDROMESH_CHANNEL_SENSITIVITY": &c.Segments.ChannelSensitivity,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "%s", key)
			}
			*dst = f
		}
	}

	if v, ok := lookup("HYDROMESH_GRID_STRIDE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "HYDROMESH_GRID_STRIDE")
		}
		c.Grid.Stride = n
	}

	strs := map[string]*string{
		"HYDROMESH_ADJACENCY": &c.Mesh.Adjacency,
		"HYDROMESH_OUT_DIR":   &c.Output.Dir,
		"HYDROMESH_LOG_LEVEL": &c.Log.Level,
		"HYDROMESH_LOG_FILE":  &c.Log.JSONFile,
		"HYDROMESH_METRICS":   &c.Output.Metrics,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	return nil
}

// Normalize fixes values the mesh tool tolerates but corrects, returning a
// warning per correction.
func (c *Config) Normalize() []string {
	var warnings []string
	if c.RiverPoints.MinSpacing > c.RiverPoints.Distance {
		corrected := c.RiverPoints.Distance * 0.5
		warnings = append(warnings, fmt.Sprintf(
			"river min_spacing %.2f exceeds distance %.2f, using %.2f",
			c.RiverPoints.MinSpacing, c.RiverPoints.Distance, corrected))
		c.RiverPoints.MinSpacing = corrected
	}
	return warnings
}

var validate = validator.New()

// Validate checks the struct tags and returns the first violation as an
// INVALID_CONFIG error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return meshErr.Wrap(meshErr.ErrCodeInvalidConfig, err, "validate")
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: field is required", field)
		case "gt":
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: must be greater than %s", field, param)
		case "gte", "min":
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: must be at least %s", field, param)
		case "lte", "max":
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: must not exceed %s", field, param)
		case "oneof":
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: must be one of [%s]", field, param)
		default:
			return meshErr.New(meshErr.ErrCodeInvalidConfig, "%s: validation failed (%s)", field, e.Tag())
		}
	}
	return nil
}

// MeshPath is the .mesh output file.
func (c *Config) MeshPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Name+".mesh")
}

// RiverPath is the .riv output file.
func (c *Config) RiverPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Name+".riv")
}

func (c *Config) RiverShapePath() string {
	return filepath.Join(c.Output.Dir, c.Output.Name+"_river.shp")
}

func (c *Config) MeshShapePath() string {
	return filepath.Join(c.Output.Dir, c.Output.Name+"_mesh.shp")
}

func (c *Config) PreviewPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Name+"_preview.html")
}
