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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default names of the lattice description files.
const (
	LatticeHeaderFile     = "grid_points.hdr"
	LatticePointsFile     = "grid_points.bin"
	ModtranElevationsFile = "modtran_elevations.txt"
	GridElevationsFile    = "grid_elevations.txt"
)

// Elevation is one of the heights [km] at which MODTRAN was run for a
// grid point. Directory is the tag used to name the simulation output
// directory for this height.
type Elevation struct {
	Elevation float64
	Directory float64
}

// GridPoint is a point of the MODTRAN lattice.
type GridPoint struct {
	Index            int
	Row, Col         int
	NarrRow, NarrCol int
	Lon, Lat         float64 // degrees
	MapX, MapY       float64 // scene map projection

	// RanModtran is false for points without simulation results.
	// Such points have no usable elevations.
	RanModtran bool

	// Elevations are in ascending order.
	Elevations []Elevation
}

// Lattice is a dense, row-major Rows × Cols grid of points. Point index
// i lies at row i / Cols and column i % Cols, with rows increasing
// northward.
type Lattice struct {
	Rows, Cols int
	Points     []GridPoint
}

// gridPointRecord is the on-disk layout of a point in grid_points.bin.
type gridPointRecord struct {
	Index, Row, Col, NarrRow, NarrCol, RunModtran int32
	Lon, Lat, MapX, MapY                          float64
}

// ReadLatticeHeader reads the point count and lattice dimensions.
func ReadLatticeHeader(r io.Reader) (count, rows, cols int, err error) {
	if _, err = fmt.Fscan(r, &count, &rows, &cols); err != nil {
		return 0, 0, 0, err
	}
	if count != rows*cols {
		return 0, 0, 0, fmt.Errorf("point count %d does not equal %d rows × %d columns", count, rows, cols)
	}
	return count, rows, cols, nil
}

// ReadGridPoints reads count fixed-layout little-endian point records.
func ReadGridPoints(r io.Reader, count int) ([]GridPoint, error) {
	points := make([]GridPoint, count)
	var rec gridPointRecord
	for i := range points {
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("point %d of %d: %v", i, count, err)
		}
		points[i] = GridPoint{
			Index:      int(rec.Index),
			Row:        int(rec.Row),
			Col:        int(rec.Col),
			NarrRow:    int(rec.NarrRow),
			NarrCol:    int(rec.NarrCol),
			Lon:        rec.Lon,
			Lat:        rec.Lat,
			MapX:       rec.MapX,
			MapY:       rec.MapY,
			RanModtran: rec.RunModtran != 0,
		}
	}
	return points, nil
}

// WriteGridPoints writes points in the layout read by ReadGridPoints.
func WriteGridPoints(w io.Writer, points []GridPoint) error {
	for _, p := range points {
		rec := gridPointRecord{
			Index:   int32(p.Index),
			Row:     int32(p.Row),
			Col:     int32(p.Col),
			NarrRow: int32(p.NarrRow),
			NarrCol: int32(p.NarrCol),
			Lon:     p.Lon,
			Lat:     p.Lat,
			MapX:    p.MapX,
			MapY:    p.MapY,
		}
		if p.RanModtran {
			rec.RunModtran = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return nil
}

// ReadModtranElevations reads the list of heights [km] at which MODTRAN
// was run: a count followed by that many values.
func ReadModtranElevations(r io.Reader) ([]float64, error) {
	var n int
	if _, err := fmt.Fscan(r, &n); err != nil {
		return nil, fmt.Errorf("reading elevation count: %v", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("invalid elevation count %d", n)
	}
	elevations := make([]float64, n)
	for i := range elevations {
		if _, err := fmt.Fscan(r, &elevations[i]); err != nil {
			return nil, fmt.Errorf("reading elevation %d of %d: %v", i+1, n, err)
		}
	}
	return elevations, nil
}

// ReadGridElevations reads n "elevation directory" pairs giving the
// ground elevation of each simulated point, in point order.
func ReadGridElevations(r io.Reader, n int) ([]Elevation, error) {
	out := make([]Elevation, 0, n)
	scanner := bufio.NewScanner(r)
	line := 0
	for len(out) < n && scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want 2 fields but have %d", line, len(fields))
		}
		var e Elevation
		var err error
		if e.Elevation, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		if e.Directory, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, fmt.Errorf("end of file after %d of %d simulated points", len(out), n)
	}
	return out, nil
}

// NewLattice assembles a lattice. Every simulated point gets one
// Elevation per entry of modtranElevations, with the first replaced by
// the point's entry in ground; ground holds one entry per simulated point
// in point order. Points that were not simulated get no elevations.
func NewLattice(rows, cols int, points []GridPoint, modtranElevations []float64, ground []Elevation) (*Lattice, error) {
	if len(points) != rows*cols {
		return nil, fmt.Errorf("atmcorr: %d grid points do not fill a %d×%d lattice", len(points), rows, cols)
	}
	if len(modtranElevations) == 0 {
		return nil, fmt.Errorf("atmcorr: no MODTRAN elevations")
	}
	l := &Lattice{Rows: rows, Cols: cols, Points: make([]GridPoint, len(points))}
	g := 0
	for i, p := range points {
		p.Elevations = nil
		if p.RanModtran {
			if g >= len(ground) {
				return nil, fmt.Errorf("atmcorr: missing ground elevation for grid point %d", i)
			}
			p.Elevations = make([]Elevation, len(modtranElevations))
			for j, e := range modtranElevations {
				p.Elevations[j] = Elevation{Elevation: e, Directory: e}
			}
			p.Elevations[0] = ground[g]
			g++
			for j := 1; j < len(p.Elevations); j++ {
				if p.Elevations[j].Elevation > p.Elevations[j-1].Elevation {
					continue
				}
				if j == 1 {
					return nil, fmt.Errorf("atmcorr: ground elevation %g km of grid point %d is not below "+
						"the next MODTRAN elevation %g km", p.Elevations[0].Elevation, i, p.Elevations[1].Elevation)
				}
				return nil, fmt.Errorf("atmcorr: elevations of grid point %d are not ascending: %v",
					i, p.Elevations)
			}
		}
		l.Points[i] = p
	}
	return l, nil
}

// Index returns the point index at the given lattice row and column,
// and false if the position lies outside the lattice.
func (l *Lattice) Index(row, col int) (int, bool) {
	if row < 0 || row >= l.Rows || col < 0 || col >= l.Cols {
		return -1, false
	}
	return row*l.Cols + col, true
}

// Simulated returns the indices of the points that have MODTRAN results.
func (l *Lattice) Simulated() []int {
	var out []int
	for i, p := range l.Points {
		if p.RanModtran {
			out = append(out, i)
		}
	}
	return out
}

// LoadLattice reads the lattice description files from directory dir.
func LoadLattice(dir string) (*Lattice, error) {
	var count, rows, cols int
	err := withFile(filepath.Join(dir, LatticeHeaderFile), func(r io.Reader) (err error) {
		count, rows, cols, err = ReadLatticeHeader(r)
		return
	})
	if err != nil {
		return nil, err
	}
	var points []GridPoint
	err = withFile(filepath.Join(dir, LatticePointsFile), func(r io.Reader) (err error) {
		points, err = ReadGridPoints(bufio.NewReader(r), count)
		return
	})
	if err != nil {
		return nil, err
	}
	var elevations []float64
	err = withFile(filepath.Join(dir, ModtranElevationsFile), func(r io.Reader) (err error) {
		elevations, err = ReadModtranElevations(r)
		return
	})
	if err != nil {
		return nil, err
	}
	var nsim int
	for _, p := range points {
		if p.RanModtran {
			nsim++
		}
	}
	var ground []Elevation
	err = withFile(filepath.Join(dir, GridElevationsFile), func(r io.Reader) (err error) {
		ground, err = ReadGridElevations(r, nsim)
		return
	})
	if err != nil {
		return nil, err
	}
	return NewLattice(rows, cols, points, elevations, ground)
}

// withFile opens path and passes it to f, naming the file in any error.
func withFile(path string, f func(io.Reader) error) error {
	r, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("atmcorr: %v", err)
	}
	defer r.Close()
	if err := f(r); err != nil {
		return fmt.Errorf("atmcorr: reading %s: %v", path, err)
	}
	return nil
}
