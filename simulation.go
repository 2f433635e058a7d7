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
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Names of the files in every simulation run directory.
const (
	SimulationDataFile   = "st_modtran.data"
	SimulationHeaderFile = "st_modtran.hdr"
)

// SimulationHeader is the metadata written alongside the 0 K MODTRAN run.
type SimulationHeader struct {
	// SurfaceTemperature is the temperature [K] of the lowest
	// atmospheric layer.
	SurfaceTemperature float64

	// RecordCount is the number of radiance records in each of the
	// three runs.
	RecordCount int
}

// SimulationDir returns the directory, relative to the simulation root,
// holding the MODTRAN runs for point p at elevation e.
func SimulationDir(p GridPoint, e Elevation) string {
	return fmt.Sprintf("%03d_%03d_%03d_%03d/%1.3f", p.Row, p.Col, p.NarrRow, p.NarrCol, e.Directory)
}

// RunDir returns the directory of a single MODTRAN run.
func RunDir(p GridPoint, e Elevation, run Run) string {
	c := Runs[run]
	return filepath.Join(SimulationDir(p, e), fmt.Sprintf("%03d", c.Temperature), fmt.Sprintf("%1.1f", c.Albedo))
}

// ReadSimulationHeader reads the surface temperature and record count.
// Each is on its own line after a label, e.g.
//	TARGET_PIXEL_SURFACE_TEMPERATURE 288.5
//	RADIANCE_RECORD_COUNT 1640
func ReadSimulationHeader(r io.Reader) (SimulationHeader, error) {
	var h SimulationHeader
	scanner := bufio.NewScanner(r)
	values := make([]string, 0, 2)
	for len(values) < 2 && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return h, fmt.Errorf("malformed line %q", scanner.Text())
		}
		values = append(values, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return h, err
	}
	switch len(values) {
	case 0:
		return h, fmt.Errorf("end of file before TARGET_PIXEL_SURFACE_TEMPERATURE")
	case 1:
		return h, fmt.Errorf("end of file before RADIANCE_RECORD_COUNT")
	}
	var err error
	if h.SurfaceTemperature, err = strconv.ParseFloat(values[0], 64); err != nil {
		return h, fmt.Errorf("TARGET_PIXEL_SURFACE_TEMPERATURE: %v", err)
	}
	if h.RecordCount, err = strconv.Atoi(values[1]); err != nil {
		return h, fmt.Errorf("RADIANCE_RECORD_COUNT: %v", err)
	}
	if h.RecordCount < 2 {
		return h, fmt.Errorf("RADIANCE_RECORD_COUNT must be at least 2 but is %d", h.RecordCount)
	}
	return h, nil
}

// ReadRadianceRecords reads n "wavelength radiance" records.
func ReadRadianceRecords(r io.Reader, n int) (wavelength, radiance []float64, err error) {
	wavelength = make([]float64, 0, n)
	radiance = make([]float64, 0, n)
	scanner := bufio.NewScanner(r)
	line := 0
	for len(wavelength) < n && scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("line %d: want 2 fields but have %d", line, len(fields))
		}
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %v", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %v", line, err)
		}
		wavelength = append(wavelength, w)
		radiance = append(radiance, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(wavelength) < n {
		return nil, nil, fmt.Errorf("end of file after %d of %d radiance records", len(wavelength), n)
	}
	return wavelength, radiance, nil
}

// LoadSimulation reads the header and the three MODTRAN runs for point p
// at elevation e from below the simulation root directory. The wavelength
// column is taken from the 273 K run.
func LoadSimulation(root string, p GridPoint, e Elevation) (*RadianceTable, SimulationHeader, error) {
	var h SimulationHeader
	err := withFile(filepath.Join(root, RunDir(p, e, Run0K), SimulationHeaderFile), func(r io.Reader) (err error) {
		h, err = ReadSimulationHeader(r)
		return
	})
	if err != nil {
		return nil, h, err
	}
	t := new(RadianceTable)
	for run := Run273K; run <= Run0K; run++ {
		err = withFile(filepath.Join(root, RunDir(p, e, run), SimulationDataFile), func(r io.Reader) error {
			wl, rad, err := ReadRadianceRecords(r, h.RecordCount)
			if err != nil {
				return err
			}
			if run == Run273K {
				t.Wavelength = wl
			}
			t.Radiance[run] = rad
			return nil
		})
		if err != nil {
			return nil, h, err
		}
	}
	return t, h, nil
}
