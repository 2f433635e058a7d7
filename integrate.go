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

// IntTabulated integrates the tabulated function {x[i], f[i]} over the
// closed interval [x[0], x[len(x)-1]]. x must be ascending and may be
// unevenly spaced. The samples are resampled on an even grid with a
// natural cubic spline and integrated with a five-point Newton-Cotes
// (Boole's) rule. It panics if fewer than two points are given.
func IntTabulated(x, f []float64) float64 {
	n := len(x)
	if n < 2 || len(f) != n {
		panic("atmcorr: IntTabulated needs at least two points of matching length")
	}

	// The number of segments must be divisible by 4.
	segments := n - 1
	for segments%4 != 0 {
		segments++
	}

	xmin, xmax := x[0], x[n-1]
	h := (xmax - xmin) / float64(segments)

	s := NewSpline(x, f, NaturalBoundary, NaturalBoundary)
	z := make([]float64, segments+1)
	var c SplineCursor
	for i := range z {
		z[i] = s.At(&c, h*float64(i)+xmin)
	}

	var result float64
	for i := 4; i <= segments; i += 4 {
		g := z[i-4 : i+1]
		result += 14*(g[0]+g[4]) + 64*(g[1]+g[3]) + 24*g[2]
	}
	return result * h / 45
}
