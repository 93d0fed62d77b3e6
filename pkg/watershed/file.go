package watershed

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
)

// fileCell mirrors one entry of the cells list. JSON files decode through
// the same tags since JSON is a subset of YAML.
type fileCell struct {
	Col          int     `yaml:"col"`
	Row          int     `yaml:"row"`
	Down         int     `yaml:"down"`
	Length       float64 `yaml:"length"`
	Elevation    float64 `yaml:"elevation"`
	Order        int     `yaml:"order"`
	Accumulation float64 `yaml:"acum"`
	Hill         int     `yaml:"hill"`
	Channel      bool    `yaml:"channel"`
}

type fileBasin struct {
	EPSG      int           `yaml:"epsg"`
	Threshold float64       `yaml:"threshold"`
	Grid      raster.Header `yaml:"grid"`
	Hills     []int         `yaml:"hills"`
	Cells     []fileCell    `yaml:"cells"`
}

// Load reads a watershed description from a YAML or JSON file.
func Load(path string) (*Basin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "open watershed %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a watershed description and validates it.
func Read(r io.Reader) (*Basin, error) {
	var fb fileBasin
	if err := yaml.NewDecoder(r).Decode(&fb); err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeInvalidInput, err, "decode watershed")
	}
	if fb.Grid.CellSize <= 0 || fb.Grid.NCols <= 0 || fb.Grid.NRows <= 0 {
		return nil, meshErr.New(meshErr.ErrCodeInvalidInput, "watershed grid is missing or empty")
	}

	cells := make([]Cell, len(fb.Cells))
	for i, c := range fb.Cells {
		cells[i] = Cell{
			Col:          c.Col,
			Row:          c.Row,
			Length:       c.Length,
			Elevation:    c.Elevation,
			Order:        c.Order,
			Accumulation: c.Accumulation,
			Hill:         c.Hill,
			Channel:      c.Channel,
			Down:         c.Down,
		}
	}
	return NewBasin(fb.Grid, fb.EPSG, fb.Threshold, cells, fb.Hills)
}
