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
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// NoData marks pixels without a value.
const NoData = -9999.0

// RadianceScale converts radiance from W cm-2 sr-1 µm-1 to
// W m-2 sr-1 µm-1.
const RadianceScale = 10000.0

// EquatorialRadius is the Earth radius [m] used for great-circle distances.
const EquatorialRadius = 6378137.0

// Haversine returns the great-circle distance [m] between two points
// given in decimal degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	const rad = math.Pi / 180
	phi1, phi2 := lat1*rad, lat2*rad
	sinLat := math.Sin((phi2 - phi1) / 2)
	sinLon := math.Sin((lon2 - lon1) * rad / 2)
	a := sinLat*sinLat + math.Cos(phi1)*math.Cos(phi2)*sinLon*sinLon
	return 2 * EquatorialRadius * math.Asin(math.Sqrt(a))
}

// Direction names a point of the 3×3 neighborhood around a center point.
type Direction int

// The neighborhood directions. "Upper" is the next lattice row.
const (
	CC Direction = iota // center
	LL                  // lower left
	LC                  // left
	UL                  // upper left
	UC                  // up
	UR                  // upper right
	RC                  // right
	LR                  // lower right
	DC                  // down
)

// directionOffsets are the (row, column) offsets of each Direction.
var directionOffsets = [9][2]int{
	CC: {0, 0},
	LL: {-1, -1},
	LC: {0, -1},
	UL: {1, -1},
	UC: {1, 0},
	UR: {1, 1},
	RC: {0, 1},
	LR: {-1, 1},
	DC: {-1, 0},
}

// Neighbors returns the indices of the 3×3 neighborhood of point center,
// indexed by Direction. Positions outside the lattice are -1; an index
// never wraps to a neighboring row.
func (l *Lattice) Neighbors(center int) [9]int {
	row, col := center/l.Cols, center%l.Cols
	var n [9]int
	for d, o := range directionOffsets {
		i, ok := l.Index(row+o[0], col+o[1])
		if !ok {
			i = -1
		}
		n[d] = i
	}
	return n
}

// Quadrant is one of the four lattice cells that share a center point.
type Quadrant int

// The quadrants, in tie-breaking order: on equal distance the later wins.
const (
	LowerLeft Quadrant = iota
	UpperLeft
	UpperRight
	LowerRight
)

var (
	// quadrantOuter are the three non-center points of each quadrant.
	quadrantOuter = [4][3]Direction{
		LowerLeft:  {DC, LL, LC},
		UpperLeft:  {LC, UL, UC},
		UpperRight: {UC, UR, RC},
		LowerRight: {RC, LR, DC},
	}
	// quadrantCell are the LL, UL, UR, LR vertices of each quadrant.
	quadrantCell = [4][4]Direction{
		LowerLeft:  {LL, LC, CC, DC},
		UpperLeft:  {LC, UL, UC, CC},
		UpperRight: {CC, UC, UR, RC},
		LowerRight: {DC, CC, RC, LR},
	}
)

// Cell holds the lattice indices of the lower-left, upper-left,
// upper-right and lower-right vertices of an interpolation cell.
type Cell [4]int

// usable reports whether point i can be a cell vertex.
func (p *Parameters) usable(i int) bool {
	return i >= 0 && p.Lattice.Points[i].RanModtran
}

// nearest returns the candidate point closest to (lon, lat). Unusable
// candidates are skipped; -1 is returned if none are usable.
func (p *Parameters) nearest(lon, lat float64, candidates []int) int {
	best, bestDist := -1, math.Inf(1)
	for _, i := range candidates {
		if !p.usable(i) {
			continue
		}
		pt := p.Lattice.Points[i]
		if d := Haversine(pt.Lon, pt.Lat, lon, lat); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// SelectCell chooses, among the quadrants around center whose four
// vertices are all simulated, the one whose outer points have the
// smallest mean great-circle distance to (lon, lat).
func (p *Parameters) SelectCell(center int, lon, lat float64) (Cell, Quadrant, error) {
	n := p.Lattice.Neighbors(center)
	var dist [9]float64
	for d, i := range n {
		if p.usable(i) {
			pt := p.Lattice.Points[i]
			dist[d] = Haversine(pt.Lon, pt.Lat, lon, lat)
		} else {
			dist[d] = math.Inf(1)
		}
	}
	best, bestMean := Quadrant(-1), math.Inf(1)
	for q, outer := range quadrantOuter {
		mean := (dist[outer[0]] + dist[outer[1]] + dist[outer[2]]) / 3
		if math.IsInf(mean, 1) {
			continue
		}
		if mean <= bestMean {
			best, bestMean = Quadrant(q), mean
		}
	}
	if best < 0 {
		return Cell{}, best, fmt.Errorf("atmcorr: no fully simulated lattice cell around grid point %d", center)
	}
	var c Cell
	for v, d := range quadrantCell[best] {
		c[v] = n[d]
	}
	return c, best, nil
}

// InterpolateHeight interpolates the parameters of one grid point,
// ordered by ascending elevation, to height h [km]. Heights outside the
// simulated range take the values of the nearest end.
func InterpolateHeight(params []PointParameters, h float64) Atmosphere {
	below := 0
	for i, p := range params {
		if p.Elevation < h {
			below = i
		}
	}
	above := below
	if above != len(params)-1 && !(h < params[above].Elevation) {
		above++
	}
	if above == below {
		return params[below].Atmosphere
	}
	a, b := params[above], params[below]
	inv := 1 / (a.Elevation - b.Elevation)
	dh := h - a.Elevation
	return Atmosphere{
		Transmission: (a.Transmission-b.Transmission)*inv*dh + a.Transmission,
		Upwelled:     (a.Upwelled-b.Upwelled)*inv*dh + a.Upwelled,
		Downwelled:   (a.Downwelled-b.Downwelled)*inv*dh + a.Downwelled,
	}
}

// Shepard blends the vertex values by inverse planar distance from
// (x, y) to each vertex (vx[i], vy[i]). A location on a vertex takes
// that vertex's values.
func Shepard(x, y float64, vx, vy [4]float64, values [4]Atmosphere) Atmosphere {
	w := make([]float64, 4)
	for i := range w {
		d := math.Hypot(vx[i]-x, vy[i]-y)
		if d == 0 {
			return values[i]
		}
		w[i] = 1 / d
	}
	floats.Scale(1/floats.Sum(w), w)
	tau := make([]float64, 4)
	lu := make([]float64, 4)
	ld := make([]float64, 4)
	for i, v := range values {
		tau[i], lu[i], ld[i] = v.Transmission, v.Upwelled, v.Downwelled
	}
	return Atmosphere{
		Transmission: floats.Dot(w, tau),
		Upwelled:     floats.Dot(w, lu),
		Downwelled:   floats.Dot(w, ld),
	}
}

// Geometry describes the pixel grid of a scene in map coordinates.
type Geometry struct {
	Lines, Samples         int
	ULx, ULy               float64 // upper-left corner
	PixelSizeX, PixelSizeY float64
}

// MapXY returns the map coordinates of a pixel.
func (g Geometry) MapXY(line, sample int) (x, y float64) {
	return g.ULx + float64(sample)*g.PixelSizeX, g.ULy - float64(line)*g.PixelSizeY
}

// Scene holds the input bands, each of shape [Lines, Samples].
type Scene struct {
	Geometry

	// Thermal is the thermal radiance band. Pixels equal to NoData are
	// skipped.
	Thermal *sparse.DenseArray

	// Elevation is the surface elevation [m].
	Elevation *sparse.DenseArray

	NoData float64
}

// Bands are the per-pixel outputs, each of shape [Lines, Samples].
// Upwelled and Downwelled are in W m-2 sr-1 µm-1.
type Bands struct {
	Thermal       *sparse.DenseArray
	Transmittance *sparse.DenseArray
	Upwelled      *sparse.DenseArray
	Downwelled    *sparse.DenseArray
}

// Engine interpolates solved grid point parameters to scene pixels.
type Engine struct {
	Params     *Parameters
	Geolocator Geolocator
	Log        logrus.FieldLogger // defaults to the logrus standard logger
}

// Run computes the atmospheric parameters of every scene pixel. Lines are
// processed concurrently; within a line the nearest grid point is searched
// globally for the first valid pixel and then only among the neighbors of
// the previous pixel's nearest point.
func (e *Engine) Run(s *Scene) (*Bands, error) {
	if len(e.Params.simulated) == 0 {
		return nil, fmt.Errorf("atmcorr: no simulated grid points")
	}
	if err := checkShape(s.Thermal, s.Lines, s.Samples); err != nil {
		return nil, fmt.Errorf("atmcorr: thermal band: %v", err)
	}
	if err := checkShape(s.Elevation, s.Lines, s.Samples); err != nil {
		return nil, fmt.Errorf("atmcorr: elevation band: %v", err)
	}
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"lines":   s.Lines,
		"samples": s.Samples,
		"pixels":  s.Lines * s.Samples,
	}).Info("interpolating parameters to pixels")

	b := &Bands{
		Thermal:       s.Thermal.Copy(),
		Transmittance: sparse.ZerosDense(s.Lines, s.Samples),
		Upwelled:      sparse.ZerosDense(s.Lines, s.Samples),
		Downwelled:    sparse.ZerosDense(s.Lines, s.Samples),
	}

	nprocs := runtime.GOMAXPROCS(0)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for line := pp; line < s.Lines; line += nprocs {
				if line%1000 == 0 {
					log.WithField("line", line).Debug("processing line")
				}
				if err := e.line(s, b, line); err != nil {
					errs[pp] = err
					return
				}
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// line processes one scanline.
func (e *Engine) line(s *Scene, b *Bands, line int) error {
	p := e.Params
	center := -1
	for sample := 0; sample < s.Samples; sample++ {
		if s.Thermal.Get(line, sample) == s.NoData {
			b.Thermal.Set(NoData, line, sample)
			b.Transmittance.Set(NoData, line, sample)
			b.Upwelled.Set(NoData, line, sample)
			b.Downwelled.Set(NoData, line, sample)
			continue
		}
		lon, lat, err := e.Geolocator.LonLat(line, sample)
		if err != nil {
			return fmt.Errorf("atmcorr: geolocating line %d sample %d: %v", line, sample, err)
		}
		if center < 0 {
			center = p.nearest(lon, lat, p.simulated)
		} else {
			n := p.Lattice.Neighbors(center)
			center = p.nearest(lon, lat, n[:])
		}
		cell, _, err := p.SelectCell(center, lon, lat)
		if err != nil {
			return fmt.Errorf("atmcorr: line %d sample %d: %v", line, sample, err)
		}

		h := s.Elevation.Get(line, sample) * 0.001
		var vx, vy [4]float64
		var values [4]Atmosphere
		for v, i := range cell {
			pt := p.Lattice.Points[i]
			vx[v], vy[v] = pt.MapX, pt.MapY
			values[v] = InterpolateHeight(p.Points[i], h)
		}
		x, y := s.MapXY(line, sample)
		a := Shepard(x, y, vx, vy, values)

		b.Transmittance.Set(a.Transmission, line, sample)
		b.Upwelled.Set(a.Upwelled*RadianceScale, line, sample)
		b.Downwelled.Set(a.Downwelled*RadianceScale, line, sample)
	}
	return nil
}

func checkShape(a *sparse.DenseArray, lines, samples int) error {
	if a == nil {
		return fmt.Errorf("missing")
	}
	if len(a.Shape) != 2 || a.Shape[0] != lines || a.Shape[1] != samples {
		return fmt.Errorf("shape %v does not match %d lines × %d samples", a.Shape, lines, samples)
	}
	return nil
}
