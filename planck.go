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
	"math"

	"github.com/ctessum/unit"
)

// Physical constants used in Planck's law.
const (
	planckConst    = 6.6260755e-34 // J s
	boltzmannConst = 1.3806503e-23 // J/K
	speedOfLight   = 299792458.0   // m/s
)

// planck returns the blackbody spectral radiance at wavelength wl [µm] and
// temperature t [K] in W cm-2 sr-1 µm-1, the units of MODTRAN output.
func planck(wl, t float64) float64 {
	lambda := wl * 1e-6
	r := 2 * planckConst * speedOfLight * speedOfLight * 1e-6 * math.Pow(lambda, -5) /
		(math.Exp(planckConst*speedOfLight/(lambda*boltzmannConst*t)) - 1)
	return r * 1e-4 // W m-2 -> W cm-2
}

// Planck returns the blackbody spectral radiance [W cm-2 sr-1 µm-1] at
// each of the given wavelengths [µm] for the given temperature [K].
func Planck(wavelength []float64, temperature float64) []float64 {
	out := make([]float64, len(wavelength))
	for i, wl := range wavelength {
		out[i] = planck(wl, temperature)
	}
	return out
}

// BlackbodyRadiance returns the band-effective blackbody radiance at the
// given temperature [K]: the Planck curve weighted by the spectral
// response and integrated over wavelength, divided by the integral of the
// response alone.
func BlackbodyRadiance(temperature float64, r *SpectralResponse) float64 {
	return r.Weighted(Planck(r.Wavelength, temperature))
}

// BlackbodyRadianceUnit is like BlackbodyRadiance but takes a dimensioned
// temperature, which must be in kelvin.
func BlackbodyRadianceUnit(t *unit.Unit, r *SpectralResponse) (float64, error) {
	if err := t.Check(unit.Kelvin); err != nil {
		return 0, fmt.Errorf("atmcorr: blackbody temperature: %v", err)
	}
	return BlackbodyRadiance(t.Value(), r), nil
}
