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

	"github.com/ctessum/geom/proj"
)

// Geolocator maps an image line and sample to longitude and latitude in
// decimal degrees. Implementations must be safe for concurrent use.
type Geolocator interface {
	LonLat(line, sample int) (lon, lat float64, err error)
}

// LonLatSRS is the geographic spatial reference used for grid point
// coordinates.
const LonLatSRS = "+proj=longlat +datum=WGS84 +no_defs"

// ProjGeolocator geolocates pixels of a scene in a projected spatial
// reference.
type ProjGeolocator struct {
	Geometry
	t proj.Transformer
}

// NewProjGeolocator returns a geolocator for a scene with the given
// geometry whose map coordinates are in spatial reference srs, given in
// proj4 or WKT format.
func NewProjGeolocator(srs string, g Geometry) (*ProjGeolocator, error) {
	src, err := proj.Parse(srs)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: parsing scene projection: %v", err)
	}
	dst, err := proj.Parse(LonLatSRS)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: parsing geographic projection: %v", err)
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("atmcorr: creating geolocation transform: %v", err)
	}
	return &ProjGeolocator{Geometry: g, t: t}, nil
}

// LonLat implements Geolocator.
func (g *ProjGeolocator) LonLat(line, sample int) (lon, lat float64, err error) {
	x, y := g.MapXY(line, sample)
	return g.t(x, y)
}
