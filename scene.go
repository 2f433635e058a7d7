/*
Copyright © 2019 the atmcorr authors.
This file is part of atmcorr.

atmcorr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

atmcorr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with atmcorr.  If not, see <http://www.gnu.org/licenses/>.
*/

package atmcorr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// SceneConfig describes a thermal scene to be corrected.
type SceneConfig struct {
	// Satellite and Instrument select the sensor, e.g. "LANDSAT_8"
	// and "OLI_TIRS".
	Satellite, Instrument string

	Lines, Samples         int
	ULx, ULy               float64
	PixelSizeX, PixelSizeY float64

	// Proj4 is the spatial reference of the scene map coordinates,
	// in proj4 or WKT format.
	Proj4 string

	// InputFile is a NetCDF file holding ThermalVariable and
	// ElevationVariable, each with dimensions [Lines, Samples].
	// It can include environment variables and is relative to the
	// directory of the configuration file.
	InputFile         string
	ThermalVariable   string
	ElevationVariable string

	// NoData is the thermal band fill value. It defaults to -9999.
	NoData float64
}

// ReadSceneConfig reads a TOML scene configuration file.
func ReadSceneConfig(path string) (*SceneConfig, error) {
	c := &SceneConfig{
		ThermalVariable:   "thermal_radiance",
		ElevationVariable: "elevation",
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: reading scene configuration: %v", err)
	}
	if !md.IsDefined("NoData") {
		c.NoData = NoData
	}
	c.InputFile = os.ExpandEnv(c.InputFile)
	if c.InputFile != "" && !filepath.IsAbs(c.InputFile) {
		c.InputFile = filepath.Join(filepath.Dir(path), c.InputFile)
	}
	if err := c.check(); err != nil {
		return nil, fmt.Errorf("atmcorr: scene configuration %s: %v", path, err)
	}
	return c, nil
}

func (c *SceneConfig) check() error {
	switch {
	case c.Lines <= 0 || c.Samples <= 0:
		return fmt.Errorf("invalid scene size %d×%d", c.Lines, c.Samples)
	case c.PixelSizeX <= 0 || c.PixelSizeY <= 0:
		return fmt.Errorf("invalid pixel size %g×%g", c.PixelSizeX, c.PixelSizeY)
	case c.Proj4 == "":
		return fmt.Errorf("missing Proj4")
	case c.InputFile == "":
		return fmt.Errorf("missing InputFile")
	}
	return nil
}

// Sensor returns the sensor the scene was acquired with.
func (c *SceneConfig) Sensor() (Sensor, error) {
	return SensorFor(c.Satellite, c.Instrument)
}

// Geometry returns the scene pixel grid.
func (c *SceneConfig) Geometry() Geometry {
	return Geometry{
		Lines:      c.Lines,
		Samples:    c.Samples,
		ULx:        c.ULx,
		ULy:        c.ULy,
		PixelSizeX: c.PixelSizeX,
		PixelSizeY: c.PixelSizeY,
	}
}

// LoadScene reads the thermal and elevation bands of the scene.
func (c *SceneConfig) LoadScene() (*Scene, error) {
	f, err := os.Open(c.InputFile)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: opening scene: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: reading scene %s: %v", c.InputFile, err)
	}
	s := &Scene{Geometry: c.Geometry(), NoData: c.NoData}
	if s.Thermal, err = readBand(ff, c.ThermalVariable, c.Lines, c.Samples); err != nil {
		return nil, fmt.Errorf("atmcorr: reading scene %s: %v", c.InputFile, err)
	}
	if s.Elevation, err = readBand(ff, c.ElevationVariable, c.Lines, c.Samples); err != nil {
		return nil, fmt.Errorf("atmcorr: reading scene %s: %v", c.InputFile, err)
	}
	return s, nil
}

// readBand reads a two-dimensional variable of any numeric type.
func readBand(f *cdf.File, v string, lines, samples int) (*sparse.DenseArray, error) {
	found := false
	for _, name := range f.Header.Variables() {
		if name == v {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	dims := f.Header.Lengths(v)
	if len(dims) != 2 || dims[0] != lines || dims[1] != samples {
		return nil, fmt.Errorf("variable %s has dimensions %v but the scene is %d×%d", v, dims, lines, samples)
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(lines * samples)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(lines, samples)
	switch t := buf.(type) {
	case []float64:
		copy(data.Elements, t)
	case []float32:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []int32:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []int16:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	case []uint8:
		for i, val := range t {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", v, buf)
	}
	return data, nil
}
