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
	"runtime"
	"sync"

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmcorr/internal/hash"
)

// Reference surface properties used to separate downwelled radiance.
const (
	WaterEmissivity = 0.988
	WaterAlbedo     = 1 - WaterEmissivity
)

// Atmosphere holds the atmospheric correction parameters at one location.
// Upwelled and Downwelled are in W cm-2 sr-1 µm-1 unless noted otherwise.
type Atmosphere struct {
	Transmission float64
	Upwelled     float64
	Downwelled   float64
}

// PointParameters are the parameters solved at one grid point elevation.
type PointParameters struct {
	Elevation float64 // km
	Atmosphere
}

// ReferenceRadiance holds the band-effective blackbody radiances of the
// two reference surface temperatures.
type ReferenceRadiance struct {
	Lt273, Lt310 float64
}

// ReferenceRadiances computes the blackbody radiance of the 273 K and
// 310 K reference surfaces for the given spectral response.
func ReferenceRadiances(r *SpectralResponse) (ReferenceRadiance, error) {
	var ref ReferenceRadiance
	var err error
	t273 := unit.New(float64(Runs[Run273K].Temperature), unit.Kelvin)
	if ref.Lt273, err = BlackbodyRadianceUnit(t273, r); err != nil {
		return ref, err
	}
	t310 := unit.New(float64(Runs[Run310K].Temperature), unit.Kelvin)
	if ref.Lt310, err = BlackbodyRadianceUnit(t310, r); err != nil {
		return ref, err
	}
	return ref, nil
}

// SolveLinear fits Lobs = Lt·tau + lu exactly through the observed
// radiances y0 and y1 of the 273 K and 310 K runs.
func (ref ReferenceRadiance) SolveLinear(y0, y1 float64) (tau, lu float64) {
	inv := 1 / (ref.Lt310 - ref.Lt273)
	tau = (y1 - y0) * inv
	lu = (ref.Lt310*y0 - ref.Lt273*y1) * inv
	return tau, lu
}

// Downwelled returns the downwelled radiance given the observed radiance
// lobs0 and surface blackbody radiance lt0 of the albedo 0.1 run.
func Downwelled(lobs0, lt0, tau, lu float64) float64 {
	return ((lobs0-lu)/tau - lt0*WaterEmissivity) / WaterAlbedo
}

// SolvePoint computes the atmospheric parameters for one grid point
// elevation from its MODTRAN runs.
func SolvePoint(t *RadianceTable, h SimulationHeader, ref ReferenceRadiance, r *SpectralResponse) Atmosphere {
	y0 := ObservedRadiance(t, Run273K, r)
	y1 := ObservedRadiance(t, Run310K, r)
	tau, lu := ref.SolveLinear(y0, y1)

	lt0 := BlackbodyRadiance(h.SurfaceTemperature, r)
	lobs0 := ObservedRadiance(t, Run0K, r)

	return Atmosphere{
		Transmission: tau,
		Upwelled:     lu,
		Downwelled:   Downwelled(lobs0, lt0, tau, lu),
	}
}

// SimulationInputs are the loaded inputs of the point solve.
type SimulationInputs struct {
	Lattice  *Lattice
	Response *SpectralResponse

	// Dir is the root directory of the MODTRAN run directories.
	Dir string
}

// Parameters are the solved atmospheric parameters of every grid point.
// Points holds one entry per elevation for simulated points and nil for
// the rest. Parameters must not be modified after creation.
type Parameters struct {
	Lattice *Lattice
	Points  [][]PointParameters

	simulated []int
}

// NewParameters checks that points matches the lattice and returns the
// resulting Parameters.
func NewParameters(l *Lattice, points [][]PointParameters) (*Parameters, error) {
	if len(points) != len(l.Points) {
		return nil, fmt.Errorf("atmcorr: %d parameter sets for %d grid points", len(points), len(l.Points))
	}
	for i, p := range l.Points {
		if p.RanModtran != (len(points[i]) > 0) {
			return nil, fmt.Errorf("atmcorr: grid point %d: simulation flag %v but %d parameter sets",
				i, p.RanModtran, len(points[i]))
		}
	}
	return &Parameters{Lattice: l, Points: points, simulated: l.Simulated()}, nil
}

// Hash returns a content hash of the solved parameters.
func (p *Parameters) Hash() string { return hash.Sum(p.Points) }

// Solve computes the parameters of every elevation of every simulated
// grid point. Points are processed concurrently. Any missing or
// malformed simulation file aborts the solve. A nil log uses the logrus
// standard logger.
func Solve(in *SimulationInputs, log logrus.FieldLogger) (*Parameters, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ref, err := ReferenceRadiances(in.Response)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"sensor": in.Response.Sensor.String(),
		"Lt273":  ref.Lt273,
		"Lt310":  ref.Lt310,
	}).Info("computed reference blackbody radiances")

	points := in.Lattice.Points
	out := make([][]PointParameters, len(points))

	nprocs := runtime.GOMAXPROCS(0)
	errs := make([]error, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < len(points); i += nprocs {
				p := points[i]
				if !p.RanModtran {
					continue
				}
				params := make([]PointParameters, len(p.Elevations))
				for j, e := range p.Elevations {
					t, h, err := LoadSimulation(in.Dir, p, e)
					if err != nil {
						errs[pp] = err
						return
					}
					params[j] = PointParameters{
						Elevation:  e.Elevation,
						Atmosphere: SolvePoint(t, h, ref, in.Response),
					}
				}
				out[i] = params
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	params, err := NewParameters(in.Lattice, out)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"points":    len(points),
		"simulated": len(params.simulated),
	}).Info("solved grid point parameters")
	return params, nil
}
