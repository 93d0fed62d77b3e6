package raster

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
)

// LoadASCII reads an ESRI ASCII grid file.
func LoadASCII(path string) (*DEM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "open dem %s", path)
	}
	defer f.Close()

	dem, err := ReadASCII(f)
	if err != nil {
		return nil, meshErr.Wrap(meshErr.GetCode(err), err, "read dem %s", path)
	}
	return dem, nil
}

// ReadASCII decodes an ESRI ASCII grid. Both the corner and the center
// variants of the origin keys are accepted; NODATA_value defaults to -9999.
func ReadASCII(r io.Reader) (*DEM, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	h := Header{NoData: -9999}
	var centerX, centerY bool
	seen := map[string]bool{}

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	var pending string
	for {
		key, ok := next()
		if !ok {
			return nil, meshErr.New(meshErr.ErrCodeInvalidInput, "ascii grid: header truncated")
		}
		lk := strings.ToLower(key)
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			pending = key
			break
		}

		val, ok := next()
		if !ok {
			return nil, meshErr.New(meshErr.ErrCodeInvalidInput, "ascii grid: missing value for %s", key)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, meshErr.Wrap(meshErr.ErrCodeInvalidInput, err, "ascii grid: %s", key)
		}

		switch lk {
		case "ncols":
			h.NCols = int(f)
		case "nrows":
			h.NRows = int(f)
		case "xllcorner":
			h.XLL = f
		case "xllcenter":
			h.XLL, centerX = f, true
		case "yllcorner":
			h.YLL = f
		case "yllcenter":
			h.YLL, centerY = f, true
		case "cellsize":
			h.CellSize = f
		case "nodata_value":
			h.NoData = f
		default:
			return nil, meshErr.New(meshErr.ErrCodeInvalidInput, "ascii grid: unknown header key %q", key)
		}
		seen[strings.TrimSuffix(strings.TrimSuffix(lk, "corner"), "center")] = true
	}

	for _, k := range []string{"ncols", "nrows", "xll", "yll", "cellsize"} {
		if !seen[k] {
			return nil, meshErr.New(meshErr.ErrCodeInvalidInput, "ascii grid: missing %s", k)
		}
	}
	if h.NCols <= 0 || h.NRows <= 0 || h.CellSize <= 0 {
		return nil, meshErr.New(meshErr.ErrCodeInvalidInput,
			"ascii grid: bad geometry %dx%d cell %g", h.NCols, h.NRows, h.CellSize)
	}
	if centerX {
		h.XLL -= h.CellSize / 2
	}
	if centerY {
		h.YLL -= h.CellSize / 2
	}

	dem := &DEM{Header: h, Values: make([]float64, 0, h.NCols*h.NRows)}
	tok := pending
	for {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, meshErr.Wrap(meshErr.ErrCodeInvalidInput, err, "ascii grid: value %d", len(dem.Values))
		}
		dem.Values = append(dem.Values, v)
		if len(dem.Values) == h.NCols*h.NRows {
			break
		}
		var ok bool
		if tok, ok = next(); !ok {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "ascii grid")
	}
	if len(dem.Values) != h.NCols*h.NRows {
		return nil, meshErr.New(meshErr.ErrCodeInvalidInput,
			"ascii grid: expected %d values, got %d", h.NCols*h.NRows, len(dem.Values))
	}
	return dem, nil
}
