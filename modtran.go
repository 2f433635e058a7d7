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

// Run identifies one of the three MODTRAN runs made at every grid point
// and elevation.
type Run int

// The MODTRAN runs, in the column order of a RadianceTable.
const (
	Run273K Run = iota // 273 K surface, albedo 0.0
	Run310K            // 310 K surface, albedo 0.0
	Run0K              // 0 K surface, albedo 0.1
)

// Runs holds the surface conditions of each Run.
var Runs = [3]struct {
	Temperature int
	Albedo      float64
}{
	Run273K: {Temperature: 273, Albedo: 0.0},
	Run310K: {Temperature: 310, Albedo: 0.0},
	Run0K:   {Temperature: 0, Albedo: 0.1},
}

// RadianceTable holds MODTRAN radiance [W cm-2 sr-1 µm-1] versus
// wavelength [µm] for the three runs at one grid point and elevation.
// Wavelength is ordered by decreasing value and shared by all runs.
type RadianceTable struct {
	Wavelength []float64
	Radiance   [3][]float64
}

// InterpolateRadiance linearly interpolates the MODTRAN curve
// (wavelength, radiance), ordered by decreasing wavelength, onto each of
// the grid wavelengths. Grid values outside the table are extrapolated
// from its last two points. The table must have at least two rows.
func InterpolateRadiance(wavelength, radiance, grid []float64) []float64 {
	n := len(wavelength)
	out := make([]float64, len(grid))
	for o, g := range grid {
		i := 0
		for ; i < n-1; i++ {
			if g <= wavelength[i] && g > wavelength[i+1] {
				break
			}
		}
		if i == n-1 {
			i = n - 2
		}
		g1, g2 := wavelength[i], wavelength[i+1]
		d1, d2 := radiance[i], radiance[i+1]
		out[o] = d1 + (g-g1)/(g2-g1)*(d2-d1)
	}
	return out
}

// ObservedRadiance returns the band-effective radiance the sensor would
// observe for the given MODTRAN run.
func ObservedRadiance(t *RadianceTable, run Run, r *SpectralResponse) float64 {
	return r.Weighted(InterpolateRadiance(t.Wavelength, t.Radiance[run], r.Wavelength))
}
