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

// Package atmcorr computes per-pixel atmospheric correction parameters
// (transmission, upwelled radiance and downwelled radiance) for thermal
// satellite scenes from MODTRAN results simulated on a coarse lattice of
// grid points.
//
// The computation is a two-phase pipeline. Solve reduces the MODTRAN
// radiance tables of every grid point elevation to band-effective
// Parameters using the sensor's spectral response, and Engine.Run
// interpolates those Parameters to every pixel, first in height and then
// in space.
package atmcorr

// Version gives the version number.
const Version = "0.1.0"
