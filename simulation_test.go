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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunDir(t *testing.T) {
	p := GridPoint{Row: 1, Col: 22, NarrRow: 130, NarrCol: 4}
	e := Elevation{Elevation: 1.5213, Directory: 1.5}
	if d := SimulationDir(p, e); d != "001_022_130_004/1.500" {
		t.Errorf("simulation directory %s", d)
	}
	tests := map[Run]string{
		Run273K: "001_022_130_004/1.500/273/0.0",
		Run310K: "001_022_130_004/1.500/310/0.0",
		Run0K:   "001_022_130_004/1.500/000/0.1",
	}
	for run, want := range tests {
		if d := RunDir(p, e, run); d != filepath.FromSlash(want) {
			t.Errorf("run %d: have %s, want %s", run, d, want)
		}
	}
}

func TestReadSimulationHeader(t *testing.T) {
	h, err := ReadSimulationHeader(strings.NewReader(
		"TARGET_PIXEL_SURFACE_TEMPERATURE 288.5\nRADIANCE_RECORD_COUNT 1640\n"))
	if err != nil {
		t.Fatal(err)
	}
	if h.SurfaceTemperature != 288.5 || h.RecordCount != 1640 {
		t.Errorf("have %+v", h)
	}

	tests := []struct {
		hdr, err string
	}{
		{"", "TARGET_PIXEL_SURFACE_TEMPERATURE"},
		{"TARGET_PIXEL_SURFACE_TEMPERATURE 288.5\n", "RADIANCE_RECORD_COUNT"},
		{"TARGET_PIXEL_SURFACE_TEMPERATURE warm\nRADIANCE_RECORD_COUNT 2\n", "TARGET_PIXEL_SURFACE_TEMPERATURE"},
		{"TARGET_PIXEL_SURFACE_TEMPERATURE 288.5\nRADIANCE_RECORD_COUNT 1\n", "at least 2"},
		{"TARGET_PIXEL_SURFACE_TEMPERATURE\n", "malformed"},
	}
	for _, test := range tests {
		_, err := ReadSimulationHeader(strings.NewReader(test.hdr))
		if err == nil || !strings.Contains(err.Error(), test.err) {
			t.Errorf("%q: error %v should contain %q", test.hdr, err, test.err)
		}
	}
}

func TestReadRadianceRecords(t *testing.T) {
	wl, rad, err := ReadRadianceRecords(strings.NewReader("14.0 1e-4\n12.0 2e-4 extra\n10.0 3e-4\n"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(wl) != 3 || wl[1] != 12 || rad[2] != 3e-4 {
		t.Errorf("have %v %v", wl, rad)
	}
	if _, _, err = ReadRadianceRecords(strings.NewReader("14.0 1e-4\n"), 3); err == nil {
		t.Error("expected an error for a short file")
	}
}

func TestLoadSimulation(t *testing.T) {
	d := testDataset()
	dirs := writeTestDataset(t, d)
	defer os.RemoveAll(dirs.root)
	l, err := LoadLattice(dirs.lattice)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Points[4]
	table, h, err := LoadSimulation(dirs.sim, p, p.Elevations[1])
	if err != nil {
		t.Fatal(err)
	}
	if h.SurfaceTemperature != d.SurfaceTemperature || h.RecordCount != len(d.Wavelength) {
		t.Errorf("header %+v", h)
	}
	n := len(d.Wavelength)
	if table.Wavelength[0] != d.Wavelength[n-1] || table.Wavelength[n-1] != d.Wavelength[0] {
		t.Errorf("wavelengths should be decreasing: %v", table.Wavelength)
	}
	for run, rad := range table.Radiance {
		if len(rad) != n {
			t.Errorf("run %d has %d records", run, len(rad))
		}
	}

	missing := filepath.Join(dirs.sim, RunDir(p, p.Elevations[2], Run310K), SimulationDataFile)
	if err = os.Remove(missing); err != nil {
		t.Fatal(err)
	}
	_, _, err = LoadSimulation(dirs.sim, p, p.Elevations[2])
	if err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("error %v should name %s", err, missing)
	}
}
