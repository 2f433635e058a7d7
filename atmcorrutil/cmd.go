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

// Package atmcorrutil contains the command-line interface of atmcorr.
package atmcorrutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/atmcorr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to atmcorr.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SceneConfig",
			usage: `
              SceneConfig is the path to the TOML file describing the scene
              to be corrected: its sensor, pixel grid, spatial reference and
              the NetCDF file holding its thermal and elevation bands.
              The path can include environment variables.`,
			shorthand:  "s",
			defaultVal: "scene.toml",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Satellite",
			usage: `
              Satellite identifies the satellite whose spectral response
              should be used when solving grid point parameters without a scene.
              Supported values are LANDSAT_4, LANDSAT_5, LANDSAT_7 and LANDSAT_8.`,
			defaultVal: atmcorr.Landsat8OLITIRS.Satellite,
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags()},
		},
		{
			name: "Instrument",
			usage: `
              Instrument identifies the thermal instrument on Satellite:
              TM, ETM or OLI_TIRS.`,
			defaultVal: atmcorr.Landsat8OLITIRS.Instrument,
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags()},
		},
		{
			name: "Proj4",
			usage: `
              Proj4 is the spatial reference of the grid point map coordinates,
              in proj4 or WKT format. It is only used for the .prj file of
              UsedPointsShapefile; if it is empty no shapefile is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{pointsCmd.Flags()},
		},
		{
			name: "LatticeDir",
			usage: `
              LatticeDir is the directory holding the grid point lattice
              description: grid_points.hdr, grid_points.bin,
              modtran_elevations.txt and grid_elevations.txt.
              The path can include environment variables.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "SimulationDir",
			usage: `
              SimulationDir is the root directory of the MODTRAN run directories,
              which are named <row>_<col>_<narr_row>_<narr_col>/<elevation>/<temperature>/<albedo>.
              The path can include environment variables.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "SpectralResponseDir",
			usage: `
              SpectralResponseDir is the directory holding the sensor spectral
              response tables. By default it is taken from the ST_DATA_DIR
              environment variable, which must then be set.`,
			defaultVal: "${ST_DATA_DIR}",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the NetCDF file where the thermal radiance,
              transmittance, upwelled radiance and downwelled radiance bands
              should be written. The path can include environment variables.`,
			shorthand:  "o",
			defaultVal: "atmcorr_bands.ncf",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ParametersFile",
			usage: `
              ParametersFile is the path where the solved parameters of every
              grid point elevation should be written as text. If it is empty,
              the file is not written.`,
			defaultVal: atmcorr.AtmosphericParametersFile,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "UsedPointsFile",
			usage: `
              UsedPointsFile is the path where the index and map coordinates of
              the simulated grid points should be written as text. If it is
              empty, the file is not written.`,
			defaultVal: atmcorr.UsedPointsFile,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "UsedPointsShapefile",
			usage: `
              UsedPointsShapefile is the path where the simulated grid points
              should be written as a point shapefile. If it is empty,
              the shapefile is not written.`,
			defaultVal: "used_points.shp",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved
              in the same location as the OutputFile (run) or ParametersFile (points).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), pointsCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ATMCORR")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(pointsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("atmcorr: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "atmcorr",
	Short: "Thermal atmospheric correction parameters from MODTRAN.",
	Long: `atmcorr computes per-pixel atmospheric transmittance, upwelled radiance
and downwelled radiance for thermal satellite scenes from MODTRAN results
simulated on a lattice of grid points.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ATMCORR_var' where 'var' is the
name of the variable to be set. Path variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of atmcorr.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("atmcorr v%s\n", atmcorr.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd computes the atmospheric parameters of every pixel of a scene.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute per-pixel atmospheric parameters.",
	Long: `run solves the atmospheric parameters of every simulated grid point
elevation, interpolates them to every pixel of the scene described by SceneConfig,
and writes the resulting bands to OutputFile.

	Output variables:
	thermal_radiance: the input thermal band
	transmittance: atmospheric transmittance
	upwelled_radiance: upwelled radiance [W m-2 sr-1 um-1]
	downwelled_radiance: downwelled radiance [W m-2 sr-1 um-1]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		scene, err := atmcorr.ReadSceneConfig(expandPath(Cfg.GetString("SceneConfig")))
		if err != nil {
			return err
		}
		sensor, err := scene.Sensor()
		if err != nil {
			return err
		}
		in, err := inputDirs(Cfg, sensor)
		if err != nil {
			return err
		}
		out, err := pointOutputs(Cfg, scene.Proj4)
		if err != nil {
			return err
		}
		return Run(
			cmd,
			checkLogFile(expandPath(Cfg.GetString("LogFile")), outputFile),
			outputFile,
			scene,
			in,
			out,
		)
	},
	DisableAutoGenTag: true,
}

// pointsCmd solves the grid point parameters without a scene.
var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Solve grid point atmospheric parameters.",
	Long: `points solves the atmospheric parameters of every simulated grid point
elevation for the sensor given by Satellite and Instrument and writes them to
ParametersFile, along with the simulated grid points, without interpolating
them to a scene.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sensor, err := checkSensor(Cfg)
		if err != nil {
			return err
		}
		in, err := inputDirs(Cfg, sensor)
		if err != nil {
			return err
		}
		out, err := pointOutputs(Cfg, Cfg.GetString("Proj4"))
		if err != nil {
			return err
		}
		if out.Parameters == "" {
			return fmt.Errorf("atmcorr: ParametersFile must be specified for the points command")
		}
		return SolvePoints(
			cmd,
			checkLogFile(expandPath(Cfg.GetString("LogFile")), out.Parameters),
			in,
			out,
		)
	},
	DisableAutoGenTag: true,
}
