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

package gfed

import (
	"context"
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Config specifies a GFED emissions analysis.
type Config struct {
	// StartYear and EndYear bound the analysis period (inclusive).
	StartYear, EndYear int

	// Archive is the emissions archive to read from.
	Archive *Archive

	// Masker selects the geographic region whose emissions are
	// aggregated. If nil, the whole globe is selected.
	Masker Masker

	// Partitioning, if true, assembles each month's emissions from
	// the per-source-category contribution datasets instead of the
	// total carbon dataset.
	Partitioning bool

	// Logger receives diagnostics about unavailable years and missing
	// datasets. If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

func (c *Config) masker() Masker {
	if c.Masker != nil {
		return c.Masker
	}
	return globeMasker{}
}

func (c *Config) check() error {
	if c.Archive == nil {
		return fmt.Errorf("gfed: nil archive")
	}
	if c.StartYear > c.EndYear {
		return fmt.Errorf("gfed: start year %d is after end year %d", c.StartYear, c.EndYear)
	}
	return nil
}

// run drives the year loop shared by the analysis variants. For each
// year in the period it opens the archive file, captures the grid
// metadata if this is the first year to open successfully, and hands
// the file to process. Years the archive has no file for are reported
// to skip and do not stop the loop; any other failure aborts the run.
func (c *Config) run(ctx context.Context, skip func(year int), process func(year int, f *YearFile, g *GridMetadata) error) (*GridMetadata, error) {
	var grid *GridMetadata
	for year := c.StartYear; year <= c.EndYear; year++ {
		f, err := c.Archive.OpenYear(ctx, year)
		if errors.Is(err, ErrYearUnavailable) {
			c.logger().Warnf("gfed: no data available for %d", year)
			skip(year)
			continue
		} else if err != nil {
			return nil, err
		}
		if grid == nil {
			// These datasets are time-invariant; read them from the
			// first year that opens and reuse them for the rest of
			// the run.
			grid, err = f.Grid()
			if err != nil {
				f.Close()
				return nil, err
			}
		}
		err = process(year, f, grid)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return grid, nil
}

// Emissions computes the annual CO2 emissions total of the configured
// region for each year of the analysis period. If returnSpatial is
// true, the area-weighted annual emissions rasters are additionally
// returned as a spatial dataset sharing the series' time axis;
// otherwise the second return value is nil.
//
// Years for which the archive holds no file keep a zero total and are
// listed in the series' Skipped field. If every year in the period is
// unavailable there is no grid to shape a spatial dataset with, so the
// returned spatial dataset is nil even when returnSpatial is true.
func (c *Config) Emissions(ctx context.Context, returnSpatial bool) (*EmissionsTimeSeries, *SpatialTimeSeries, error) {
	if err := c.check(); err != nil {
		return nil, nil, err
	}
	asm := newAssembler(c.StartYear, c.EndYear, returnSpatial)
	var mask maskCell
	grid, err := c.run(ctx, asm.skip, func(year int, f *YearFile, g *GridMetadata) error {
		annual, err := f.AnnualCO2(g, c.Partitioning, c.logger())
		if err != nil {
			return err
		}
		m, err := mask.get(c.masker(), g)
		if err != nil {
			return err
		}
		total, err := regionTotal(annual, g.Area, m)
		if err != nil {
			return err
		}
		asm.add(year, total)
		if returnSpatial {
			weighted, err := mulDense(annual, g.Area)
			if err != nil {
				return err
			}
			asm.addField(year, weighted)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	ts, sp := asm.finalize(grid)
	return ts, sp, nil
}

// RegionEmissions computes annual CO2 emissions totals for each GFED
// basis region plus the whole globe over the analysis period. The
// region masks come from the archive's basis-region raster, so no
// Masker is involved.
func (c *Config) RegionEmissions(ctx context.Context) (*RegionEmissionsTable, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	nYears := c.EndYear - c.StartYear + 1
	totals := sparse.ZerosDense(NumBasisRegions+1, nYears)
	var skipped []int
	_, err := c.run(ctx, func(year int) {
		skipped = append(skipped, year)
	}, func(year int, f *YearFile, g *GridMetadata) error {
		annual, err := f.AnnualCO2(g, c.Partitioning, c.logger())
		if err != nil {
			return err
		}
		rt, err := regionTotals(annual, g)
		if err != nil {
			return err
		}
		for region, t := range rt {
			totals.Set(t*teragramsPerGram, region, year-c.StartYear)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	regions := make([]string, 0, NumBasisRegions+1)
	regions = append(regions, BasisRegionNames...)
	regions = append(regions, "Globe")
	return &RegionEmissionsTable{
		Time:    yearLabels(c.StartYear, c.EndYear),
		Regions: regions,
		Totals:  totals,
		Skipped: skipped,
	}, nil
}
