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
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/atmcorr"
	"github.com/spf13/cast"
)

// Inputs locate the inputs of the grid point solve.
type Inputs struct {
	// LatticeDir holds the lattice description files.
	LatticeDir string

	// SimulationDir is the root of the MODTRAN run directories.
	SimulationDir string

	// SpectralResponseDir holds the spectral response table of Sensor.
	SpectralResponseDir string

	Sensor atmcorr.Sensor
}

// PointOutputs are the grid point diagnostic files. Empty paths are
// skipped.
type PointOutputs struct {
	Parameters          string
	UsedPoints          string
	UsedPointsShapefile string

	// Proj4 is the spatial reference of the grid point map coordinates,
	// written alongside UsedPointsShapefile.
	Proj4 string
}

// expandPath expands any environment variables in a path.
func expandPath(p string) string {
	return os.ExpandEnv(p)
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.ncf")`)
	}
	f = expandPath(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("atmcorr: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// checkDataDir expands environment variables in the spectral response
// directory and makes sure it exists.
func checkDataDir(dir string) (string, error) {
	d := expandPath(dir)
	if d == "" {
		if strings.Contains(dir, "ST_DATA_DIR") {
			return "", fmt.Errorf("atmcorr: the ST_DATA_DIR environment variable is not set")
		}
		return "", fmt.Errorf("atmcorr: SpectralResponseDir is not specified")
	}
	info, err := os.Stat(d)
	if err != nil {
		return "", fmt.Errorf("atmcorr: spectral response directory: %v", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("atmcorr: spectral response directory %s is not a directory", d)
	}
	return d, nil
}

// checkDir expands environment variables in a directory path and makes
// sure it exists.
func checkDir(name, dir string) (string, error) {
	d := expandPath(dir)
	if d == "" {
		return "", fmt.Errorf("atmcorr: %s is not specified", name)
	}
	if _, err := os.Stat(d); err != nil {
		return "", fmt.Errorf("atmcorr: %s: %v", name, err)
	}
	return d, nil
}

// checkSensor returns the sensor given by the Satellite and Instrument
// configuration variables.
func checkSensor(cfg *viper.Viper) (atmcorr.Sensor, error) {
	satellite, err := cast.ToStringE(cfg.Get("Satellite"))
	if err != nil {
		return atmcorr.Sensor{}, fmt.Errorf("atmcorr: reading Satellite: %v", err)
	}
	instrument, err := cast.ToStringE(cfg.Get("Instrument"))
	if err != nil {
		return atmcorr.Sensor{}, fmt.Errorf("atmcorr: reading Instrument: %v", err)
	}
	return atmcorr.SensorFor(satellite, instrument)
}

// inputDirs reads and checks the input directories from cfg.
func inputDirs(cfg *viper.Viper, sensor atmcorr.Sensor) (Inputs, error) {
	in := Inputs{Sensor: sensor}
	var err error
	if in.LatticeDir, err = checkDir("LatticeDir", cfg.GetString("LatticeDir")); err != nil {
		return in, err
	}
	if in.SimulationDir, err = checkDir("SimulationDir", cfg.GetString("SimulationDir")); err != nil {
		return in, err
	}
	if in.SpectralResponseDir, err = checkDataDir(cfg.GetString("SpectralResponseDir")); err != nil {
		return in, err
	}
	return in, nil
}

// pointOutputs reads and checks the grid point output paths from cfg.
func pointOutputs(cfg *viper.Viper, proj4 string) (PointOutputs, error) {
	out := PointOutputs{Proj4: proj4}
	paths := []*string{&out.Parameters, &out.UsedPoints, &out.UsedPointsShapefile}
	for i, name := range []string{"ParametersFile", "UsedPointsFile", "UsedPointsShapefile"} {
		p := cfg.GetString(name)
		if p == "" {
			continue
		}
		var err error
		if *paths[i], err = checkOutputFile(p); err != nil {
			return out, fmt.Errorf("atmcorr: %s: %v", name, err)
		}
	}
	if out.Proj4 == "" {
		out.UsedPointsShapefile = ""
	}
	return out, nil
}
