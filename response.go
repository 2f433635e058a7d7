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
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sensor identifies a satellite thermal instrument together with its
// spectral response table.
type Sensor struct {
	// Satellite and Instrument are the identifiers used in scene metadata,
	// e.g. "LANDSAT_8" and "OLI_TIRS".
	Satellite, Instrument string

	// File is the name of the spectral response table within the
	// spectral response data directory.
	File string

	// Count is the number of (wavelength, response) pairs in File.
	Count int
}

func (s Sensor) String() string { return s.Satellite + "/" + s.Instrument }

// The supported sensors.
var (
	Landsat4TM      = Sensor{Satellite: "LANDSAT_4", Instrument: "TM", File: "L4_Spectral_Response.txt", Count: 125}
	Landsat5TM      = Sensor{Satellite: "LANDSAT_5", Instrument: "TM", File: "L5_Spectral_Response.txt", Count: 171}
	Landsat7ETM     = Sensor{Satellite: "LANDSAT_7", Instrument: "ETM", File: "L7_Spectral_Response.txt", Count: 47}
	Landsat8OLITIRS = Sensor{Satellite: "LANDSAT_8", Instrument: "OLI_TIRS", File: "L8_Spectral_Response.txt", Count: 101}
)

// Sensors lists every supported sensor.
var Sensors = []Sensor{Landsat4TM, Landsat5TM, Landsat7ETM, Landsat8OLITIRS}

// SensorFor returns the sensor matching the given satellite and
// instrument identifiers, ignoring case.
func SensorFor(satellite, instrument string) (Sensor, error) {
	for _, s := range Sensors {
		if strings.EqualFold(s.Satellite, satellite) && strings.EqualFold(s.Instrument, instrument) {
			return s, nil
		}
	}
	return Sensor{}, fmt.Errorf("atmcorr: unsupported satellite/instrument combination %s/%s", satellite, instrument)
}

// SpectralResponse is a sensor's relative spectral response, tabulated by
// ascending wavelength [µm]. It must not be modified after creation.
type SpectralResponse struct {
	Sensor     Sensor
	Wavelength []float64
	Response   []float64

	integral float64
}

// NewSpectralResponse checks the table against the sensor and precomputes
// the integral of the response over wavelength.
func NewSpectralResponse(s Sensor, wavelength, response []float64) (*SpectralResponse, error) {
	if len(wavelength) != s.Count || len(response) != s.Count {
		return nil, fmt.Errorf("atmcorr: %v spectral response should have %d points but has %d",
			s, s.Count, len(wavelength))
	}
	if s.Count < 2 {
		return nil, fmt.Errorf("atmcorr: %v spectral response needs at least 2 points", s)
	}
	for i := 1; i < len(wavelength); i++ {
		if wavelength[i] <= wavelength[i-1] {
			return nil, fmt.Errorf("atmcorr: %v spectral response wavelengths are not ascending at line %d", s, i+1)
		}
	}
	r := &SpectralResponse{Sensor: s, Wavelength: wavelength, Response: response}
	r.integral = IntTabulated(wavelength, response)
	return r, nil
}

// Integral returns the integral of the response over wavelength.
func (r *SpectralResponse) Integral() float64 { return r.integral }

// Weighted returns the response-weighted band-effective value of the
// spectral curve f, which must be tabulated at r.Wavelength.
func (r *SpectralResponse) Weighted(f []float64) float64 {
	product := make([]float64, len(f))
	for i, v := range f {
		product[i] = v * r.Response[i]
	}
	return IntTabulated(r.Wavelength, product) / r.integral
}

// ReadSpectralResponse reads s.Count whitespace-separated
// (wavelength, response) pairs from rd. Lines after the last expected pair
// are ignored.
func ReadSpectralResponse(rd io.Reader, s Sensor) (*SpectralResponse, error) {
	wl := make([]float64, 0, s.Count)
	resp := make([]float64, 0, s.Count)
	scanner := bufio.NewScanner(rd)
	line := 0
	for len(wl) < s.Count && scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want 2 fields but have %d", line, len(fields))
		}
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		wl = append(wl, w)
		resp = append(resp, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(wl) < s.Count {
		return nil, fmt.Errorf("end of file after %d of %d spectral response points", len(wl), s.Count)
	}
	return NewSpectralResponse(s, wl, resp)
}

// LoadSpectralResponse reads the spectral response table for s from
// directory dir.
func LoadSpectralResponse(dir string, s Sensor) (*SpectralResponse, error) {
	path := filepath.Join(dir, s.File)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: opening spectral response: %v", err)
	}
	defer f.Close()
	r, err := ReadSpectralResponse(f, s)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: reading spectral response %s: %v", path, err)
	}
	return r, nil
}
