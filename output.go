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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
	goshp "github.com/jonas-p/go-shp"
)

// Default output file names.
const (
	AtmosphericParametersFile = "atmospheric_parameters.txt"
	UsedPointsFile            = "used_points.txt"
)

// WriteAtmosphericParameters writes one line per elevation of each
// simulated grid point: latitude, longitude, elevation, transmission,
// upwelled radiance and downwelled radiance.
func WriteAtmosphericParameters(w io.Writer, p *Parameters) error {
	bw := bufio.NewWriter(w)
	for i, pt := range p.Lattice.Points {
		for _, e := range p.Points[i] {
			_, err := fmt.Fprintf(bw, "%f,%f,%12.9f,%12.9f,%12.9f,%12.9f\n",
				pt.Lat, pt.Lon, e.Elevation, e.Transmission, e.Upwelled, e.Downwelled)
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteUsedPoints writes the index and map coordinates of every simulated
// grid point.
func WriteUsedPoints(w io.Writer, l *Lattice) error {
	bw := bufio.NewWriter(w)
	for _, i := range l.Simulated() {
		pt := l.Points[i]
		if _, err := fmt.Fprintf(bw, "\"%d\"|\"%f\"|\"%f\"\n", i, pt.MapX, pt.MapY); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteUsedPointsShapefile writes the simulated grid points to a point
// shapefile at path, with a .prj file holding the projection srs.
func WriteUsedPointsShapefile(path string, l *Lattice, srs string) error {
	e, err := shp.NewEncoderFromFields(path, goshp.POINT,
		goshp.NumberField("Index", 10),
		goshp.NumberField("Row", 10),
		goshp.NumberField("Col", 10),
		goshp.FloatField("Lon", 14, 8),
		goshp.FloatField("Lat", 14, 8),
	)
	if err != nil {
		return fmt.Errorf("atmcorr: creating used point shapefile: %v", err)
	}
	for _, i := range l.Simulated() {
		pt := l.Points[i]
		err = e.EncodeFields(geom.Point{X: pt.MapX, Y: pt.MapY}, i, pt.Row, pt.Col, pt.Lon, pt.Lat)
		if err != nil {
			e.Close()
			return fmt.Errorf("atmcorr: writing used point shapefile: %v", err)
		}
	}
	e.Close()

	prj, err := os.Create(strings.TrimSuffix(path, ".shp") + ".prj")
	if err != nil {
		return fmt.Errorf("atmcorr: creating used point projection file: %v", err)
	}
	defer prj.Close()
	if _, err = prj.Write([]byte(srs)); err != nil {
		return fmt.Errorf("atmcorr: writing used point projection file: %v", err)
	}
	return nil
}

// BandMetadata is written as global attributes of the band file.
type BandMetadata struct {
	Sensor         Sensor
	Geometry       Geometry
	Proj4          string
	ParametersHash string
}

// bandInfo describes an output band variable.
type bandInfo struct {
	name, longName, units string
	data                  func(*Bands) *sparse.DenseArray
}

var bandInfos = []bandInfo{
	{"thermal_radiance", "thermal band radiance", "W m-2 sr-1 um-1", func(b *Bands) *sparse.DenseArray { return b.Thermal }},
	{"transmittance", "atmospheric transmittance", "1", func(b *Bands) *sparse.DenseArray { return b.Transmittance }},
	{"upwelled_radiance", "upwelled radiance", "W m-2 sr-1 um-1", func(b *Bands) *sparse.DenseArray { return b.Upwelled }},
	{"downwelled_radiance", "downwelled radiance", "W m-2 sr-1 um-1", func(b *Bands) *sparse.DenseArray { return b.Downwelled }},
}

// BandNames are the names of the variables created by WriteBands.
func BandNames() []string {
	names := make([]string, len(bandInfos))
	for i, b := range bandInfos {
		names[i] = b.name
	}
	return names
}

// WriteBands writes the output bands to w as a NetCDF file with
// dimensions (y, x).
func WriteBands(w *os.File, b *Bands, m BandMetadata) error {
	g := m.Geometry
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Lines, g.Samples})
	h.AddAttribute("", "comment", "atmospheric correction parameters")
	h.AddAttribute("", "sensor", m.Sensor.String())
	h.AddAttribute("", "proj4", m.Proj4)
	h.AddAttribute("", "parameters_hash", m.ParametersHash)
	h.AddAttribute("", "x0", []float64{g.ULx})
	h.AddAttribute("", "y0", []float64{g.ULy})
	h.AddAttribute("", "dx", []float64{g.PixelSizeX})
	h.AddAttribute("", "dy", []float64{g.PixelSizeY})
	for _, bi := range bandInfos {
		h.AddVariable(bi.name, []string{"y", "x"}, []float32{0})
		h.AddAttribute(bi.name, "long_name", bi.longName)
		h.AddAttribute(bi.name, "units", bi.units)
		h.AddAttribute(bi.name, "_FillValue", []float32{NoData})
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("atmcorr: creating band file: %v", err)
	}
	for _, bi := range bandInfos {
		if err = writeBand(f, bi.name, bi.data(b)); err != nil {
			return fmt.Errorf("atmcorr: writing band %s: %v", bi.name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeBand(f *cdf.File, v string, data *sparse.DenseArray) error {
	end := f.Header.Lengths(v)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, n)
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	_, err := f.Writer(v, make([]int, len(end)), end).Write(data32)
	return err
}

// BandSummary holds statistics of the valid pixels of a band.
type BandSummary struct {
	Name           string
	Count          int
	Min, Max, Mean float64
}

// Summarize computes statistics of the pixels of each band that are not
// NoData.
func Summarize(b *Bands) []BandSummary {
	out := make([]BandSummary, len(bandInfos))
	for i, bi := range bandInfos {
		var s stats.Stats
		for _, v := range bi.data(b).Elements {
			if v != NoData {
				s.Update(v)
			}
		}
		out[i] = BandSummary{Name: bi.name, Count: s.Count()}
		if s.Count() > 0 {
			out[i].Min, out[i].Max, out[i].Mean = s.Min(), s.Max(), s.Mean()
		}
	}
	return out
}
