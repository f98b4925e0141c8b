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
	"fmt"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// SpatialVarName is the name of the data variable in exported spatial
// datasets.
const SpatialVarName = "emissions MMT CO2/year"

// An EmissionsTimeSeries holds annual regional CO2 emissions totals
// for a contiguous span of calendar years. The series is dense: every
// year in the requested span has an entry, and years for which the
// archive held no data keep their zero value and are listed in
// Skipped.
type EmissionsTimeSeries struct {
	// Time holds one year-end timestamp per year in the analysis
	// period, in chronological order.
	Time []time.Time

	// Totals holds the regional emissions total for each year
	// [Tg CO2 yr-1].
	Totals []float64

	// Skipped lists the years for which the archive held no data.
	Skipped []int
}

// Total returns the emissions total at index i as a dimensioned mass.
func (ts *EmissionsTimeSeries) Total(i int) *unit.Unit {
	// 1 Tg = 1e9 kg.
	return unit.New(ts.Totals[i]*1e9, unit.Kilogram)
}

// A RegionEmissionsTable holds annual CO2 emissions totals for each
// GFED basis region plus the whole globe.
type RegionEmissionsTable struct {
	// Time holds one year-end timestamp per year in the analysis
	// period, in chronological order.
	Time []time.Time

	// Regions names the table rows: the basis regions in identifier
	// order followed by "Globe".
	Regions []string

	// Totals holds the emissions totals [Tg CO2 yr-1], with shape
	// (region, year).
	Totals *sparse.DenseArray

	// Skipped lists the years for which the archive held no data.
	Skipped []int
}

// A SpatialTimeSeries stacks per-year emissions rasters along a
// leading time axis. Each raster holds area-weighted emissions in the
// archive's native mass unit [g CO2 yr-1 per cell]; unlike the scalar
// series, no macro-unit conversion is applied, matching the convention
// of the analysis this is based on. The variable name records the
// reporting unit of the scalar series derived from it.
type SpatialTimeSeries struct {
	// Time holds one year-end timestamp per year, matching the time
	// axis of the scalar series.
	Time []time.Time

	// Lat and Lon are the grid coordinate axes [degrees].
	Lat, Lon []float64

	// Data holds the stacked rasters, with shape (time, lat, lon).
	// Years for which the archive held no data are all-zero slabs.
	Data *sparse.DenseArray
}

// WriteNetCDF writes the dataset to w in NetCDF format with dimensions
// time, lat, and lon, and a single data variable named SpatialVarName.
// Timestamps are stored as days since 1970-01-01.
func (s *SpatialTimeSeries) WriteNetCDF(w cdf.ReaderWriterAt) error {
	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{len(s.Time), len(s.Lat), len(s.Lon)})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "days since 1970-01-01")
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable(SpatialVarName, []string{"time", "lat", "lon"}, []float64{0})
	h.AddAttribute(SpatialVarName, "units", "g CO2 year-1")
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("gfed: creating spatial dataset: %v", err)
	}
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("gfed: creating spatial dataset: %v", err)
	}

	days := make([]float64, len(s.Time))
	for i, t := range s.Time {
		days[i] = float64(t.Unix()) / 86400
	}
	for _, v := range []struct {
		name string
		data []float64
	}{
		{"time", days},
		{"lat", s.Lat},
		{"lon", s.Lon},
		{SpatialVarName, s.Data.Elements},
	} {
		end := h.Lengths(v.name)
		start := make([]int, len(end))
		wr := f.Writer(v.name, start, end)
		if _, err := wr.Write(v.data); err != nil {
			return fmt.Errorf("gfed: writing spatial dataset variable %s: %v", v.name, err)
		}
	}
	return nil
}

// yearEnd returns the timestamp labeling the given year in output time
// series.
func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// yearLabels returns one timestamp per year in [startYear, endYear].
func yearLabels(startYear, endYear int) []time.Time {
	labels := make([]time.Time, endYear-startYear+1)
	for i := range labels {
		labels[i] = yearEnd(startYear + i)
	}
	return labels
}

// An assembler accumulates per-year results into dense, year-indexed
// storage. Results are written at the index of their own year, so the
// output ordering does not depend on processing order, and years that
// are never written retain zero.
type assembler struct {
	startYear, endYear int

	totals  []float64
	fields  []*sparse.DenseArray // unused unless spatial output is requested
	skipped []int
}

func newAssembler(startYear, endYear int, spatial bool) *assembler {
	a := &assembler{
		startYear: startYear,
		endYear:   endYear,
		totals:    make([]float64, endYear-startYear+1),
	}
	if spatial {
		a.fields = make([]*sparse.DenseArray, endYear-startYear+1)
	}
	return a
}

// add records the total for one year in the archive's native mass
// unit [g CO2].
func (a *assembler) add(year int, total float64) {
	a.totals[year-a.startYear] = total
}

// addField retains the area-weighted annual raster for one year.
func (a *assembler) addField(year int, field *sparse.DenseArray) {
	a.fields[year-a.startYear] = field
}

// skip records that the archive held no data for year.
func (a *assembler) skip(year int) {
	a.skipped = append(a.skipped, year)
}

// finalize converts the accumulated totals to the reporting unit and
// labels them. If spatial accumulation was enabled and at least one
// year succeeded, the retained rasters are stacked into a spatial
// dataset sharing the same time axis; g supplies its coordinate axes.
func (a *assembler) finalize(g *GridMetadata) (*EmissionsTimeSeries, *SpatialTimeSeries) {
	ts := &EmissionsTimeSeries{
		Time:    yearLabels(a.startYear, a.endYear),
		Totals:  make([]float64, len(a.totals)),
		Skipped: a.skipped,
	}
	for i, t := range a.totals {
		ts.Totals[i] = t * teragramsPerGram
	}

	if a.fields == nil || g == nil {
		return ts, nil
	}
	shape := g.Shape()
	stack := sparse.ZerosDense(len(a.fields), shape[0], shape[1])
	slab := shape[0] * shape[1]
	for i, f := range a.fields {
		if f == nil {
			continue
		}
		copy(stack.Elements[i*slab:(i+1)*slab], f.Elements)
	}
	sp := &SpatialTimeSeries{
		Time: ts.Time,
		Lat:  g.Lat,
		Lon:  g.Lon,
		Data: stack,
	}
	return ts, sp
}
