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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spatialmodel/atmcorr/internal/fixture"
)

const testTolerance = 1e-8

// testSensor is a sensor with a short synthetic response table.
var testSensor = Sensor{Satellite: "TEST", Instrument: "TIR", File: "test_response.txt", Count: 17}

// testDataset returns a 3×3 lattice whose parameters vary with point
// and height.
func testDataset() *fixture.Dataset {
	wl := make([]float64, testSensor.Count)
	resp := make([]float64, testSensor.Count)
	for i := range wl {
		wl[i] = 10 + 0.125*float64(i)
		resp[i] = 1 - math.Abs(wl[i]-11)/1.5
	}
	return &fixture.Dataset{
		Rows: 3, Cols: 3,
		Lon0: -106, Lat0: 39, DLon: 0.5, DLat: 0.5,
		DX: 43000, DY: 55000,
		Elevations:         []float64{0, 0.5, 1, 2},
		Ground:             0.25,
		SensorFile:         testSensor.File,
		Wavelength:         wl,
		Response:           resp,
		SurfaceTemperature: 290,
		Atmosphere: func(i int, h float64) (tau, lu, ld float64) {
			return 0.8 - 0.05*h + 0.01*float64(i), 1e-4 + 5e-5*h, 2e-4 + 1e-4*h
		},
		Planck: planck,
	}
}

// testDirs are the locations of a written test dataset.
type testDirs struct {
	root, lattice, response, sim string
}

// writeTestDataset writes d to a new temporary directory, which the
// caller must remove.
func writeTestDataset(t *testing.T, d *fixture.Dataset) testDirs {
	root, err := ioutil.TempDir("", "atmcorr")
	if err != nil {
		t.Fatal(err)
	}
	dirs := testDirs{
		root:     root,
		lattice:  filepath.Join(root, "lattice"),
		response: filepath.Join(root, "response"),
		sim:      filepath.Join(root, "modtran"),
	}
	if err = d.Write(dirs.lattice, dirs.response, dirs.sim); err != nil {
		os.RemoveAll(root)
		t.Fatal(err)
	}
	return dirs
}

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func differentAtmosphere(a, b Atmosphere, tolerance float64) bool {
	return different(a.Transmission, b.Transmission, tolerance) ||
		different(a.Upwelled, b.Upwelled, tolerance) ||
		different(a.Downwelled, b.Downwelled, tolerance)
}
