/*
Copyright © 2019 the GFED authors.
This file is part of GFED.

GFED is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GFED is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GFED.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command gfed computes annual regional CO2 emissions time series from
// the Global Fire Emissions Database.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/gfed"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name: "begin",
			usage: `
              begin is the first year of the analysis period.`,
			defaultVal: 1997,
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "end",
			usage: `
              end is the last year of the analysis period.`,
			defaultVal: 2022,
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "archive",
			usage: `
              archive is the location of the GFED4.1s archive: a local
              directory, an http(s) URL, or a gs://, s3://, or file://
              bucket URL.`,
			defaultVal: gfed.DefaultArchiveURL,
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "regions",
			usage: `
              regions is the location of a shapefile containing the
              candidate region polygons in longitude/latitude
              coordinates.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "region_attr",
			usage: `
              region_attr is the shapefile attribute column holding
              region names.`,
			defaultVal: "name",
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "region",
			usage: `
              region is the name of the region whose emissions are
              aggregated. If no shapefile is given, the whole globe is
              used.`,
			defaultVal: "California",
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "partitioning",
			usage: `
              partitioning assembles monthly emissions from the
              per-source-category contribution datasets instead of the
              total carbon dataset.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "basis_regions",
			usage: `
              basis_regions computes one total per GFED basis region
              (plus the whole globe) instead of masking by a single
              region.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path of the CSV file the emissions series
              is written to.`,
			defaultVal: "emissions.csv",
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
		{
			name: "spatial_output",
			usage: `
              spatial_output is the path of a NetCDF file the
              time-stacked spatial emissions dataset is written to. If
              empty, no spatial output is produced.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{root.Flags()},
		},
	}

	Cfg = viper.New()
	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			default:
				panic(fmt.Sprintf("invalid argument type: %T", option.defaultVal))
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

var root = &cobra.Command{
	Use:   "gfed",
	Short: "gfed computes annual fire CO2 emissions time series.",
	Long: `gfed retrieves annual fire emissions estimates from the Global
Fire Emissions Database archive, aggregates them over a geographic
region, and writes the resulting yearly time series.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile := Cfg.GetString("config"); cfgFile != "" {
			Cfg.SetConfigFile(cfgFile)
			if err := Cfg.ReadInConfig(); err != nil {
				return fmt.Errorf("reading configuration file: %v", err)
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(context.Background())
	},
}

func run(ctx context.Context) error {
	logger := logrus.StandardLogger()

	cfg := &gfed.Config{
		StartYear:    cast.ToInt(Cfg.Get("begin")),
		EndYear:      cast.ToInt(Cfg.Get("end")),
		Archive:      &gfed.Archive{Base: Cfg.GetString("archive")},
		Partitioning: Cfg.GetBool("partitioning"),
		Logger:       logger,
	}

	if Cfg.GetBool("basis_regions") {
		table, err := cfg.RegionEmissions(ctx)
		if err != nil {
			return err
		}
		return writeRegionCSV(Cfg.GetString("output"), table)
	}

	if shpFile := Cfg.GetString("regions"); shpFile != "" {
		region, err := gfed.LoadRegion(shpFile, Cfg.GetString("region_attr"), Cfg.GetString("region"))
		if err != nil {
			return err
		}
		cfg.Masker = &gfed.PolygonMasker{Region: region}
	}

	spatialFile := Cfg.GetString("spatial_output")
	series, spatial, err := cfg.Emissions(ctx, spatialFile != "")
	if err != nil {
		return err
	}
	for _, year := range series.Skipped {
		logger.Warnf("no archive data for %d; its total is zero", year)
	}

	if spatialFile != "" && spatial == nil {
		logger.Warnf("no archive data in the whole period; not writing %s", spatialFile)
	} else if spatialFile != "" {
		f, err := os.Create(spatialFile)
		if err != nil {
			return fmt.Errorf("creating %s: %v", spatialFile, err)
		}
		if err := spatial.WriteNetCDF(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Infof("wrote spatial dataset to %s", spatialFile)
	}

	return writeSeriesCSV(Cfg.GetString("output"), series)
}

// writeSeriesCSV writes the emissions series as year,emissions rows.
func writeSeriesCSV(filename string, series *gfed.EmissionsTimeSeries) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %v", filename, err)
	}
	w := csv.NewWriter(f)
	w.Write([]string{"year", "emissions [Tg CO2]"})
	for i, t := range series.Time {
		w.Write([]string{
			strconv.Itoa(t.Year()),
			strconv.FormatFloat(series.Totals[i], 'g', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %v", filename, err)
	}
	return f.Close()
}

// writeRegionCSV writes the basis-region table with one column per
// region.
func writeRegionCSV(filename string, table *gfed.RegionEmissionsTable) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %v", filename, err)
	}
	w := csv.NewWriter(f)
	w.Write(append([]string{"year"}, table.Regions...))
	for i, t := range table.Time {
		row := make([]string, len(table.Regions)+1)
		row[0] = strconv.Itoa(t.Year())
		for region := range table.Regions {
			row[region+1] = strconv.FormatFloat(table.Totals.Get(region, i), 'g', -1, 64)
		}
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %v", filename, err)
	}
	return f.Close()
}

func main() {
	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
