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

package atmcorrutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/atmcorr"
	"github.com/spf13/cobra"
)

// startLog directs the standard logger and the returned logrus logger to
// both the command output and LogFile. The returned function closes the
// log file.
func startLog(CobraCommand *cobra.Command, LogFile string) (*logrus.Logger, func(), error) {
	logfile, err := os.Create(LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("atmcorr: problem creating log file: %v", err)
	}
	mw := io.MultiWriter(CobraCommand.OutOrStdout(), logfile)
	log.SetOutput(mw)
	l := logrus.New()
	l.Out = mw
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return l, func() { logfile.Close() }, nil
}

// solve loads the lattice and spectral response, solves the parameters
// of every simulated grid point and writes the grid point outputs.
func solve(l logrus.FieldLogger, in Inputs, out PointOutputs) (*atmcorr.Parameters, error) {
	l.WithField("dir", in.LatticeDir).Info("reading grid point lattice")
	lattice, err := atmcorr.LoadLattice(in.LatticeDir)
	if err != nil {
		return nil, err
	}
	l.WithFields(logrus.Fields{
		"rows":      lattice.Rows,
		"cols":      lattice.Cols,
		"simulated": len(lattice.Simulated()),
	}).Info("read grid point lattice")

	response, err := atmcorr.LoadSpectralResponse(in.SpectralResponseDir, in.Sensor)
	if err != nil {
		return nil, err
	}

	p, err := atmcorr.Solve(&atmcorr.SimulationInputs{
		Lattice:  lattice,
		Response: response,
		Dir:      in.SimulationDir,
	}, l)
	if err != nil {
		return nil, err
	}

	if out.Parameters != "" {
		if err = writeFile(out.Parameters, func(w io.Writer) error {
			return atmcorr.WriteAtmosphericParameters(w, p)
		}); err != nil {
			return nil, err
		}
		l.WithField("file", out.Parameters).Info("wrote grid point parameters")
	}
	if out.UsedPoints != "" {
		if err = writeFile(out.UsedPoints, func(w io.Writer) error {
			return atmcorr.WriteUsedPoints(w, lattice)
		}); err != nil {
			return nil, err
		}
		l.WithField("file", out.UsedPoints).Info("wrote used grid points")
	}
	if out.UsedPointsShapefile != "" {
		if err = atmcorr.WriteUsedPointsShapefile(out.UsedPointsShapefile, lattice, out.Proj4); err != nil {
			return nil, err
		}
		l.WithField("file", out.UsedPointsShapefile).Info("wrote used grid point shapefile")
	}
	return p, nil
}

// writeFile creates path and writes to it with f.
func writeFile(path string, f func(io.Writer) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("atmcorr: %v", err)
	}
	if err = f(w); err != nil {
		w.Close()
		return fmt.Errorf("atmcorr: writing %s: %v", path, err)
	}
	return w.Close()
}

// Run computes the atmospheric parameters of every pixel of a scene.
//
// CobraCommand is the cobra.Command instance where Run is called from.
//
// LogFile is the path to the desired logfile location.
//
// OutputFile is the path to the NetCDF file the output bands are written to.
//
// scene describes the scene to be corrected, in is the location of the grid
// point inputs, and out gives the paths of the grid point diagnostic files.
func Run(CobraCommand *cobra.Command, LogFile, OutputFile string, scene *atmcorr.SceneConfig,
	in Inputs, out PointOutputs) error {

	startTime := time.Now()

	l, closeLog, err := startLog(CobraCommand, LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	l.WithField("time", startTime.Format(time.RFC3339)).Info("starting atmospheric correction")

	p, err := solve(l, in, out)
	if err != nil {
		return err
	}

	s, err := scene.LoadScene()
	if err != nil {
		return err
	}
	g, err := atmcorr.NewProjGeolocator(scene.Proj4, s.Geometry)
	if err != nil {
		return err
	}
	e := &atmcorr.Engine{Params: p, Geolocator: g, Log: l}
	b, err := e.Run(s)
	if err != nil {
		return err
	}

	f, err := os.Create(OutputFile)
	if err != nil {
		return fmt.Errorf("atmcorr: creating output file: %v", err)
	}
	err = atmcorr.WriteBands(f, b, atmcorr.BandMetadata{
		Sensor:         in.Sensor,
		Geometry:       s.Geometry,
		Proj4:          scene.Proj4,
		ParametersHash: p.Hash(),
	})
	if err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("atmcorr: closing output file: %v", err)
	}

	for _, bs := range atmcorr.Summarize(b) {
		l.WithFields(logrus.Fields{
			"band":  bs.Name,
			"count": bs.Count,
			"min":   bs.Min,
			"max":   bs.Max,
			"mean":  bs.Mean,
		}).Info("band summary")
	}
	l.WithFields(logrus.Fields{
		"file":    OutputFile,
		"elapsed": time.Since(startTime).String(),
	}).Info("atmospheric correction complete")
	return nil
}

// SolvePoints solves the atmospheric parameters of every simulated grid
// point and writes the grid point diagnostic files without processing a
// scene.
func SolvePoints(CobraCommand *cobra.Command, LogFile string, in Inputs, out PointOutputs) error {
	startTime := time.Now()

	l, closeLog, err := startLog(CobraCommand, LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if _, err = solve(l, in, out); err != nil {
		return err
	}
	l.WithField("elapsed", time.Since(startTime).String()).Info("grid point solve complete")
	return nil
}
