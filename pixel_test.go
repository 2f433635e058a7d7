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
	"sync/atomic"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHaversine(t *testing.T) {
	if d := Haversine(10, 20, 10, 20); d != 0 {
		t.Errorf("same point: have %g", d)
	}
	want := EquatorialRadius * math.Pi / 180
	if d := Haversine(0, 0, 1, 0); different(d, want, 1e-12) {
		t.Errorf("one degree of longitude: have %g, want %g", d, want)
	}
	if d := Haversine(-105, 40, -105, 41); different(d, want, 1e-12) {
		t.Errorf("one degree of latitude: have %g, want %g", d, want)
	}
	a, b := Haversine(-105, 40, -104.2, 41.3), Haversine(-104.2, 41.3, -105, 40)
	if a != b {
		t.Errorf("not symmetric: %g != %g", a, b)
	}
}

func TestNeighbors(t *testing.T) {
	l := &Lattice{Rows: 3, Cols: 4}
	tests := []struct {
		center int
		want   [9]int
	}{
		//         CC  LL  LC  UL  UC  UR  RC  LR  DC
		{5, [9]int{5, 0, 4, 8, 9, 10, 6, 2, 1}},
		{0, [9]int{0, -1, -1, -1, 4, 5, 1, -1, -1}},
		// The last column does not wrap to the next row.
		{7, [9]int{7, 2, 6, 10, 11, -1, -1, -1, 3}},
		{11, [9]int{11, 6, 10, -1, -1, -1, -1, -1, 7}},
	}
	for _, test := range tests {
		if n := l.Neighbors(test.center); n != test.want {
			t.Errorf("center %d: have %v, want %v", test.center, n, test.want)
		}
	}
}

// testParameters creates parameters on a rows × cols lattice with
// longitude lon0 + col, latitude lat0 + row and map coordinates
// (1000·col, 1000·row).
func testParameters(t *testing.T, rows, cols int, lon0, lat0 float64, unsimulated map[int]bool,
	heights []float64, f func(i int, h float64) Atmosphere) *Parameters {
	points := make([]GridPoint, rows*cols)
	params := make([][]PointParameters, len(points))
	for i := range points {
		r, c := i/cols, i%cols
		points[i] = GridPoint{
			Index: i, Row: r, Col: c,
			Lon: lon0 + float64(c), Lat: lat0 + float64(r),
			MapX: 1000 * float64(c), MapY: 1000 * float64(r),
			RanModtran: !unsimulated[i],
		}
		if unsimulated[i] {
			continue
		}
		for _, h := range heights {
			points[i].Elevations = append(points[i].Elevations, Elevation{Elevation: h, Directory: h})
			params[i] = append(params[i], PointParameters{Elevation: h, Atmosphere: f(i, h)})
		}
	}
	p, err := NewParameters(&Lattice{Rows: rows, Cols: cols, Points: points}, params)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func constantAtmosphere(int, float64) Atmosphere {
	return Atmosphere{Transmission: 0.5, Upwelled: 0.01, Downwelled: 0.02}
}

func TestSelectCell(t *testing.T) {
	p := testParameters(t, 3, 3, -1, -1, nil, []float64{0}, constantAtmosphere)
	tests := []struct {
		name     string
		center   int
		lon, lat float64
		cell     Cell
		quadrant Quadrant
	}{
		{"upper right", 4, 0.3, 0.3, Cell{4, 7, 8, 5}, UpperRight},
		{"lower left", 4, -0.3, -0.3, Cell{0, 3, 4, 1}, LowerLeft},
		{"upper left", 4, -0.3, 0.3, Cell{3, 6, 7, 4}, UpperLeft},
		{"lower right", 4, 0.3, -0.3, Cell{1, 4, 5, 2}, LowerRight},
		{"tie", 4, 0, 0, Cell{1, 4, 5, 2}, LowerRight},
		{"corner", 0, -1.5, -1.5, Cell{0, 3, 4, 1}, UpperRight},
	}
	for _, test := range tests {
		cell, q, err := p.SelectCell(test.center, test.lon, test.lat)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if cell != test.cell || q != test.quadrant {
			t.Errorf("%s: have %v %d, want %v %d", test.name, cell, q, test.cell, test.quadrant)
		}
	}
}

func TestSelectCellUnsimulated(t *testing.T) {
	p := testParameters(t, 3, 3, -1, -1, map[int]bool{8: true}, []float64{0}, constantAtmosphere)
	cell, q, err := p.SelectCell(4, 0.3, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if q == UpperRight {
		t.Error("chose a quadrant with an unsimulated vertex")
	}
	for _, i := range cell {
		if i == 8 {
			t.Errorf("cell %v includes unsimulated point 8", cell)
		}
	}

	only := map[int]bool{0: true, 1: true, 2: true, 3: true, 5: true, 6: true, 7: true, 8: true}
	p = testParameters(t, 3, 3, -1, -1, only, []float64{0}, constantAtmosphere)
	if _, _, err = p.SelectCell(4, 0.3, 0.3); err == nil {
		t.Error("expected an error when no quadrant is fully simulated")
	}
}

func TestInterpolateHeight(t *testing.T) {
	params := make([]PointParameters, 3)
	for i := range params {
		h := float64(i)
		params[i] = PointParameters{
			Elevation:  h,
			Atmosphere: Atmosphere{Transmission: 1 + h, Upwelled: 10 - h, Downwelled: 2 * h},
		}
	}
	tests := []struct {
		h    float64
		want Atmosphere
	}{
		{-5, params[0].Atmosphere},
		{0, params[0].Atmosphere},
		{1, params[1].Atmosphere},
		{1.5, Atmosphere{Transmission: 2.5, Upwelled: 8.5, Downwelled: 3}},
		{0.25, Atmosphere{Transmission: 1.25, Upwelled: 9.75, Downwelled: 0.5}},
		{10, params[2].Atmosphere},
	}
	for _, test := range tests {
		have := InterpolateHeight(params, test.h)
		if math.Abs(have.Transmission-test.want.Transmission) > 1e-12 ||
			math.Abs(have.Upwelled-test.want.Upwelled) > 1e-12 ||
			math.Abs(have.Downwelled-test.want.Downwelled) > 1e-12 {
			t.Errorf("h=%g: have %+v, want %+v", test.h, have, test.want)
		}
	}
	if have := InterpolateHeight(params[1:2], 7); have != params[1].Atmosphere {
		t.Errorf("single elevation: have %+v", have)
	}
}

func TestShepard(t *testing.T) {
	vx := [4]float64{0, 0, 1, 1}
	vy := [4]float64{0, 1, 1, 0}
	var values [4]Atmosphere
	for i := range values {
		v := float64(i + 1)
		values[i] = Atmosphere{Transmission: v, Upwelled: 10 * v, Downwelled: -v}
	}
	have := Shepard(0.5, 0.5, vx, vy, values)
	want := Atmosphere{Transmission: 2.5, Upwelled: 25, Downwelled: -2.5}
	if differentAtmosphere(have, want, 1e-12) {
		t.Errorf("centroid: have %+v, want %+v", have, want)
	}
	if have = Shepard(1, 1, vx, vy, values); have != values[2] {
		t.Errorf("vertex: have %+v, want %+v", have, values[2])
	}
	if have = Shepard(0.1, 0.05, vx, vy, values); have.Transmission >= 2 {
		t.Errorf("near the first vertex: have %g", have.Transmission)
	}
}

// testGeolocator maps map coordinates x, y [m] to longitude
// -106 + x/1000 and latitude 39 + y/1000.
type testGeolocator struct {
	Geometry
	calls int64
	fail  bool
}

func (g *testGeolocator) LonLat(line, sample int) (lon, lat float64, err error) {
	atomic.AddInt64(&g.calls, 1)
	if g.fail {
		return 0, 0, fmt.Errorf("no geolocation")
	}
	x, y := g.MapXY(line, sample)
	return -106 + x/1000, 39 + y/1000, nil
}

// testScene covers a 3×3 lattice with spacing 1000 without lining up
// pixels with the midpoints between grid points.
func testScene() *Scene {
	s := &Scene{
		Geometry: Geometry{Lines: 20, Samples: 20, ULx: 37, ULy: 1990, PixelSizeX: 97, PixelSizeY: 97},
		NoData:   NoData,
	}
	s.Thermal = sparse.ZerosDense(s.Lines, s.Samples)
	s.Elevation = sparse.ZerosDense(s.Lines, s.Samples)
	for l := 0; l < s.Lines; l++ {
		for k := 0; k < s.Samples; k++ {
			s.Thermal.Set(8+0.01*float64(l*s.Samples+k), l, k)
			s.Elevation.Set(float64(125*l+10*k), l, k)
		}
	}
	return s
}

func TestEngineUniform(t *testing.T) {
	p := testParameters(t, 3, 3, -106, 39, nil, []float64{0, 1, 2, 3}, constantAtmosphere)
	s := testScene()
	log, _ := test.NewNullLogger()
	e := &Engine{Params: p, Geolocator: &testGeolocator{Geometry: s.Geometry}, Log: log}
	b, err := e.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b.Transmittance.Elements {
		if different(b.Transmittance.Elements[i], 0.5, 1e-12) ||
			different(b.Upwelled.Elements[i], 0.01*RadianceScale, 1e-12) ||
			different(b.Downwelled.Elements[i], 0.02*RadianceScale, 1e-12) {
			t.Fatalf("pixel %d: tau=%g lu=%g ld=%g", i, b.Transmittance.Elements[i],
				b.Upwelled.Elements[i], b.Downwelled.Elements[i])
		}
		if b.Thermal.Elements[i] != s.Thermal.Elements[i] {
			t.Fatalf("pixel %d: thermal %g, want %g", i, b.Thermal.Elements[i], s.Thermal.Elements[i])
		}
	}
	b.Thermal.Elements[0] = -1
	if s.Thermal.Elements[0] == -1 {
		t.Error("output thermal band shares storage with the input")
	}
}

func TestEngineHeight(t *testing.T) {
	f := func(_ int, h float64) Atmosphere {
		return Atmosphere{Transmission: 0.9 - 0.1*h, Upwelled: 1e-4 + 2e-5*h, Downwelled: 3e-4 - 1e-5*h}
	}
	p := testParameters(t, 3, 3, -106, 39, nil, []float64{0, 1, 2, 3}, f)
	s := testScene()
	log, _ := test.NewNullLogger()
	e := &Engine{Params: p, Geolocator: &testGeolocator{Geometry: s.Geometry}, Log: log}
	b, err := e.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	for l := 0; l < s.Lines; l++ {
		for k := 0; k < s.Samples; k++ {
			h := s.Elevation.Get(l, k) * 0.001
			if h > 3 {
				h = 3
			}
			want := f(0, h)
			if math.Abs(b.Transmittance.Get(l, k)-want.Transmission) > 1e-12 ||
				math.Abs(b.Upwelled.Get(l, k)-want.Upwelled*RadianceScale) > 1e-9 ||
				math.Abs(b.Downwelled.Get(l, k)-want.Downwelled*RadianceScale) > 1e-9 {
				t.Errorf("line %d sample %d at %g km: have %g %g %g, want %+v", l, k, h,
					b.Transmittance.Get(l, k), b.Upwelled.Get(l, k), b.Downwelled.Get(l, k), want)
			}
		}
	}
}

// The neighbor search along a line gives the same result as a global
// search at every pixel.
func TestEngineMatchesGlobalSearch(t *testing.T) {
	heights := []float64{0, 1, 2, 3}
	f := func(i int, h float64) Atmosphere {
		return Atmosphere{
			Transmission: 0.6 + 0.03*float64(i) - 0.05*h,
			Upwelled:     1e-4 * (1 + float64(i%3) + h),
			Downwelled:   2e-4 * (1 + float64(i/3) + h*h),
		}
	}
	p := testParameters(t, 3, 3, -106, 39, nil, heights, f)
	s := testScene()
	g := &testGeolocator{Geometry: s.Geometry}
	log, _ := test.NewNullLogger()
	e := &Engine{Params: p, Geolocator: g, Log: log}
	b, err := e.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	for l := 0; l < s.Lines; l++ {
		for k := 0; k < s.Samples; k++ {
			lon, lat, _ := g.LonLat(l, k)
			center := p.nearest(lon, lat, p.simulated)
			cell, _, err := p.SelectCell(center, lon, lat)
			if err != nil {
				t.Fatal(err)
			}
			var vx, vy [4]float64
			var values [4]Atmosphere
			for v, i := range cell {
				vx[v], vy[v] = p.Lattice.Points[i].MapX, p.Lattice.Points[i].MapY
				values[v] = InterpolateHeight(p.Points[i], s.Elevation.Get(l, k)*0.001)
			}
			x, y := s.MapXY(l, k)
			want := Shepard(x, y, vx, vy, values)
			if b.Transmittance.Get(l, k) != want.Transmission ||
				b.Upwelled.Get(l, k) != want.Upwelled*RadianceScale ||
				b.Downwelled.Get(l, k) != want.Downwelled*RadianceScale {
				t.Errorf("line %d sample %d: have %g %g %g, want %+v", l, k,
					b.Transmittance.Get(l, k), b.Upwelled.Get(l, k), b.Downwelled.Get(l, k), want)
			}
		}
	}
}

func TestEngineNoData(t *testing.T) {
	p := testParameters(t, 3, 3, -106, 39, nil, []float64{0, 1}, constantAtmosphere)
	s := testScene()
	for i := range s.Thermal.Elements {
		s.Thermal.Elements[i] = NoData
	}
	g := &testGeolocator{Geometry: s.Geometry, fail: true}
	log, _ := test.NewNullLogger()
	e := &Engine{Params: p, Geolocator: g, Log: log}
	b, err := e.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	if g.calls != 0 {
		t.Errorf("geolocated %d no-data pixels", g.calls)
	}
	for _, band := range []*sparse.DenseArray{b.Thermal, b.Transmittance, b.Upwelled, b.Downwelled} {
		for i, v := range band.Elements {
			if v != NoData {
				t.Fatalf("pixel %d: have %g, want no data", i, v)
			}
		}
	}

	// Mixed valid and no-data pixels.
	s = testScene()
	nodata := 0
	for i := range s.Thermal.Elements {
		if i%3 == 0 {
			s.Thermal.Elements[i] = NoData
			nodata++
		}
	}
	g = &testGeolocator{Geometry: s.Geometry}
	e.Geolocator = g
	if b, err = e.Run(s); err != nil {
		t.Fatal(err)
	}
	if want := int64(len(s.Thermal.Elements) - nodata); g.calls != want {
		t.Errorf("geolocated %d pixels, want %d", g.calls, want)
	}
	for i := range s.Thermal.Elements {
		if (i%3 == 0) != (b.Transmittance.Elements[i] == NoData) {
			t.Errorf("pixel %d: transmittance %g", i, b.Transmittance.Elements[i])
		}
	}
}

func TestEngineSceneFillValue(t *testing.T) {
	p := testParameters(t, 3, 3, -106, 39, nil, []float64{0, 1}, constantAtmosphere)
	s := testScene()
	s.NoData = 0
	s.Thermal.Set(0, 0, 0)
	s.Thermal.Set(0, 7, 11)
	e := &Engine{Params: p, Geolocator: &testGeolocator{Geometry: s.Geometry}}
	b, err := e.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, px := range [][2]int{{0, 0}, {7, 11}} {
		for _, band := range []*sparse.DenseArray{b.Thermal, b.Transmittance, b.Upwelled, b.Downwelled} {
			if v := band.Get(px[0], px[1]); v != NoData {
				t.Errorf("pixel %v: have %g, want %g", px, v, NoData)
			}
		}
	}
	if s.Thermal.Get(0, 0) != 0 {
		t.Error("input thermal band was modified")
	}
	sums := Summarize(b)
	for _, bs := range sums {
		if want := s.Lines*s.Samples - 2; bs.Count != want {
			t.Errorf("%s: %d valid pixels, want %d", bs.Name, bs.Count, want)
		}
	}
}

func TestEngineErrors(t *testing.T) {
	p := testParameters(t, 3, 3, -106, 39, nil, []float64{0, 1}, constantAtmosphere)
	log, _ := test.NewNullLogger()

	s := testScene()
	e := &Engine{Params: p, Geolocator: &testGeolocator{Geometry: s.Geometry, fail: true}, Log: log}
	if _, err := e.Run(s); err == nil {
		t.Error("expected a geolocation error")
	}

	e.Geolocator = &testGeolocator{Geometry: s.Geometry}
	s.Elevation = sparse.ZerosDense(s.Lines, s.Samples+1)
	if _, err := e.Run(s); err == nil {
		t.Error("expected an error for mismatched band shapes")
	}

	all := make(map[int]bool)
	for i := 0; i < 9; i++ {
		all[i] = true
	}
	e.Params = testParameters(t, 3, 3, -106, 39, all, nil, constantAtmosphere)
	if _, err := e.Run(testScene()); err == nil {
		t.Error("expected an error without simulated points")
	}
}
