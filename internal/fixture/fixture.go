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

// Package fixture writes small synthetic lattice, spectral response and
// MODTRAN run directories for testing. The MODTRAN radiances are built
// from known atmospheric parameters so that a correct solve recovers them.
package fixture

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

// Emissivity of the surface in the albedo 0.1 run.
const Emissivity = 0.988

// Dataset describes a synthetic lattice of Rows × Cols points. Point i
// lies at column i % Cols and row i / Cols, with longitude
// Lon0 + col·DLon, latitude Lat0 + row·DLat, and map coordinates
// X0 + col·DX, Y0 + row·DY.
type Dataset struct {
	Rows, Cols int

	Lon0, Lat0, DLon, DLat float64
	X0, Y0, DX, DY         float64

	// Unsimulated holds the indices of the points without MODTRAN runs.
	Unsimulated map[int]bool

	// Elevations are the MODTRAN heights [km]; the first is replaced by
	// Ground for every point.
	Elevations []float64
	Ground     float64

	// SensorFile, Wavelength and Response form the spectral response
	// table. Wavelength is ascending.
	SensorFile string
	Wavelength []float64
	Response   []float64

	SurfaceTemperature float64

	// Atmosphere gives the parameters of point i at elevation h [km].
	Atmosphere func(i int, h float64) (tau, lu, ld float64)

	// Planck gives blackbody radiance at wavelength wl [µm] and
	// temperature t [K].
	Planck func(wl, t float64) float64
}

// Lon returns the longitude of point i.
func (d *Dataset) Lon(i int) float64 { return d.Lon0 + float64(i%d.Cols)*d.DLon }

// Lat returns the latitude of point i.
func (d *Dataset) Lat(i int) float64 { return d.Lat0 + float64(i/d.Cols)*d.DLat }

// MapXY returns the map coordinates of point i.
func (d *Dataset) MapXY(i int) (x, y float64) {
	return d.X0 + float64(i%d.Cols)*d.DX, d.Y0 + float64(i/d.Cols)*d.DY
}

// Heights returns the elevations of every simulated point.
func (d *Dataset) Heights() []float64 {
	h := append([]float64{}, d.Elevations...)
	h[0] = d.Ground
	return h
}

// Write creates the lattice files in latticeDir, the spectral response
// table in responseDir and the MODTRAN runs below simDir.
func (d *Dataset) Write(latticeDir, responseDir, simDir string) error {
	for _, dir := range []string{latticeDir, responseDir, simDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := d.writeLattice(latticeDir); err != nil {
		return err
	}
	var resp strings.Builder
	for i, wl := range d.Wavelength {
		fmt.Fprintf(&resp, "%.6f %.6f\n", wl, d.Response[i])
	}
	if err := ioutil.WriteFile(filepath.Join(responseDir, d.SensorFile), []byte(resp.String()), 0644); err != nil {
		return err
	}
	for i := 0; i < d.Rows*d.Cols; i++ {
		if d.Unsimulated[i] {
			continue
		}
		for _, h := range d.Heights() {
			if err := d.writeRuns(simDir, i, h); err != nil {
				return err
			}
		}
	}
	return nil
}

type record struct {
	Index, Row, Col, NarrRow, NarrCol, RunModtran int32
	Lon, Lat, MapX, MapY                          float64
}

func (d *Dataset) writeLattice(dir string) error {
	n := d.Rows * d.Cols
	hdr := fmt.Sprintf("%d\n%d\n%d\n", n, d.Rows, d.Cols)
	if err := ioutil.WriteFile(filepath.Join(dir, "grid_points.hdr"), []byte(hdr), 0644); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, "grid_points.bin"))
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		x, y := d.MapXY(i)
		r := record{
			Index:   int32(i),
			Row:     int32(i / d.Cols),
			Col:     int32(i % d.Cols),
			NarrRow: int32(100 + i/d.Cols),
			NarrCol: int32(200 + i%d.Cols),
			Lon:     d.Lon(i),
			Lat:     d.Lat(i),
			MapX:    x,
			MapY:    y,
		}
		if !d.Unsimulated[i] {
			r.RunModtran = 1
		}
		if err = binary.Write(f, binary.LittleEndian, &r); err != nil {
			f.Close()
			return err
		}
	}
	if err = f.Close(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(d.Elevations))
	for _, e := range d.Elevations {
		fmt.Fprintf(&b, "%g\n", e)
	}
	if err = ioutil.WriteFile(filepath.Join(dir, "modtran_elevations.txt"), []byte(b.String()), 0644); err != nil {
		return err
	}

	b.Reset()
	for i := 0; i < n; i++ {
		if !d.Unsimulated[i] {
			fmt.Fprintf(&b, "%g %g\n", d.Ground, d.Ground)
		}
	}
	return ioutil.WriteFile(filepath.Join(dir, "grid_elevations.txt"), []byte(b.String()), 0644)
}

// RunDir returns the directory, relative to the simulation root, of
// point i at height h for the given surface temperature and albedo.
func (d *Dataset) RunDir(i int, h float64, temperature int, albedo float64) string {
	return filepath.Join(
		fmt.Sprintf("%03d_%03d_%03d_%03d", i/d.Cols, i%d.Cols, 100+i/d.Cols, 200+i%d.Cols),
		fmt.Sprintf("%1.3f", h),
		fmt.Sprintf("%03d", temperature),
		fmt.Sprintf("%1.1f", albedo))
}

func (d *Dataset) writeRuns(root string, i int, h float64) error {
	tau, lu, ld := d.Atmosphere(i, h)
	n := len(d.Wavelength)
	runs := []struct {
		temperature int
		albedo      float64
		radiance    func(wl float64) float64
	}{
		{273, 0.0, func(wl float64) float64 { return tau*d.Planck(wl, 273) + lu }},
		{310, 0.0, func(wl float64) float64 { return tau*d.Planck(wl, 310) + lu }},
		{0, 0.1, func(wl float64) float64 {
			return tau*(Emissivity*d.Planck(wl, d.SurfaceTemperature)+(1-Emissivity)*ld) + lu
		}},
	}
	for _, r := range runs {
		dir := filepath.Join(root, d.RunDir(i, h, r.temperature, r.albedo))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		// MODTRAN writes wavelengths in decreasing order.
		var b strings.Builder
		for k := n - 1; k >= 0; k-- {
			wl := d.Wavelength[k]
			fmt.Fprintf(&b, "%.17g %.17g\n", wl, r.radiance(wl))
		}
		if err := ioutil.WriteFile(filepath.Join(dir, "st_modtran.data"), []byte(b.String()), 0644); err != nil {
			return err
		}
		if r.temperature == 0 {
			hdr := fmt.Sprintf("TARGET_PIXEL_SURFACE_TEMPERATURE %.17g\nRADIANCE_RECORD_COUNT %d\n",
				d.SurfaceTemperature, n)
			if err := ioutil.WriteFile(filepath.Join(dir, "st_modtran.hdr"), []byte(hdr), 0644); err != nil {
				return err
			}
		}
	}
	return nil
}
