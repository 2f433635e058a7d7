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

// NaturalBoundary, when given as a boundary derivative to NewSpline,
// forces a zero second derivative at that end of the curve.
const NaturalBoundary = 1e30

// naturalThreshold is the derivative magnitude above which a boundary
// is treated as natural rather than clamped.
const naturalThreshold = 0.99e30

// Spline is a cubic spline fitted through tabulated points.
// It is immutable after construction and may be shared between goroutines;
// per-caller search state lives in a SplineCursor.
type Spline struct {
	x, y, y2 []float64
}

// NewSpline fits a cubic spline through the points (x[i], y[i]), where x is
// ascending. yp1 and ypn are the first derivatives at the first and last
// point; values above 0.99e30 (e.g. NaturalBoundary) select a natural
// boundary at that end. x and y must have the same length of at least 2.
func NewSpline(x, y []float64, yp1, ypn float64) *Spline {
	n := len(x)
	y2 := make([]float64, n)
	u := make([]float64, n)

	if yp1 > naturalThreshold {
		y2[0], u[0] = 0, 0
	} else {
		y2[0] = -0.5
		u[0] = (3 / (x[1] - x[0])) * ((y[1]-y[0])/(x[1]-x[0]) - yp1)
	}

	// Forward elimination of the tridiagonal system.
	for i := 1; i < n-1; i++ {
		sig := (x[i] - x[i-1]) / (x[i+1] - x[i-1])
		p := sig*y2[i-1] + 2
		y2[i] = (sig - 1) / p
		u[i] = (y[i+1]-y[i])/(x[i+1]-x[i]) - (y[i]-y[i-1])/(x[i]-x[i-1])
		u[i] = (6*u[i]/(x[i+1]-x[i-1]) - sig*u[i-1]) / p
	}

	var qn, un float64
	if ypn <= naturalThreshold {
		qn = 0.5
		un = (3 / (x[n-1] - x[n-2])) * (ypn - (y[n-1]-y[n-2])/(x[n-1]-x[n-2]))
	}
	y2[n-1] = (un - qn*u[n-2]) / (qn*y2[n-2] + 1)

	// Back substitution.
	for k := n - 2; k >= 0; k-- {
		y2[k] = y2[k]*y2[k+1] + u[k]
	}
	return &Spline{x: x, y: y, y2: y2}
}

// SecondDerivatives returns the fitted second derivatives at each knot.
// The returned slice must not be modified.
func (s *Spline) SecondDerivatives() []float64 { return s.y2 }

// SplineCursor remembers the bracketing interval found by the previous
// evaluation so that a sequence of nearby, increasing queries only needs a
// short search. The zero value is ready to use. A cursor must not be
// shared between goroutines or between splines.
type SplineCursor struct {
	lo, hi int
	set    bool
}

// Reset forgets the cached bracket.
func (c *SplineCursor) Reset() { *c = SplineCursor{} }

// At evaluates the spline at x. If c is nil, the bracket is found by a
// full bisection. A zero-width bracket (repeated x values) evaluates to 0.
func (s *Spline) At(c *SplineCursor, x float64) float64 {
	if c == nil {
		c = new(SplineCursor)
	}
	n := len(s.x)
	if !c.set {
		c.lo, c.hi, c.set = 0, n-1, true
	} else {
		if x < s.x[c.lo] {
			c.lo = 0
		}
		if x > s.x[c.hi] {
			c.hi = n - 1
		}
	}
	for c.hi-c.lo > 1 {
		k := (c.hi + c.lo) >> 1
		if s.x[k] > x {
			c.hi = k
		} else {
			c.lo = k
		}
	}

	h := s.x[c.hi] - s.x[c.lo]
	if h == 0 {
		return 0
	}
	a := (s.x[c.hi] - x) / h
	return s.y[c.hi] + a*(s.y[c.lo]-s.y[c.hi]) +
		h*h*a*(a-1)*((a+1)*s.y2[c.lo]+(2-a)*s.y2[c.hi])/6
}
