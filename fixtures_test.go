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
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
)

// Synthetic archive grid shape.
const (
	testNy = 4
	testNx = 6
)

// testArea is the uniform grid cell area in synthetic archive files
// [m2].
const testArea = 2

const testTolerance = 1e-8

func different(a, b float64) bool {
	if a == 0 && b == 0 {
		return false
	}
	return math.Abs(a-b)/math.Max(math.Abs(a), math.Abs(b)) > testTolerance
}

// uniform returns a raster-sized slice filled with v.
func uniform(v float64) []float32 {
	s := make([]float32, testNy*testNx)
	for i := range s {
		s[i] = float32(v)
	}
	return s
}

// allMonths maps every month to the same uniform carbon value.
func allMonths(v float64) map[string]float64 {
	m := make(map[string]float64)
	for _, month := range months {
		m[month] = v
	}
	return m
}

// writeYearFile writes a synthetic archive file for year into dir.
// monthVals gives the uniform carbon value of each month present in
// the file; months not listed are omitted entirely. If partition is
// non-nil, per-source contribution datasets with the given uniform
// fractions are added for each listed month. The grid uses cell-center
// coordinates equal to the row and column indices, a uniform cell area
// of area (or testArea if zero), and basis region 1 for the left half
// of the grid and 2 for the right half.
func writeYearFile(t *testing.T, dir string, year int, monthVals map[string]float64, partition map[string]float64, area float64) {
	t.Helper()
	if area == 0 {
		area = testArea
	}

	h := cdf.NewHeader([]string{"lat", "lon"}, []int{testNy, testNx})
	h.AddVariable(latVar, []string{"lat", "lon"}, []float32{0})
	h.AddVariable(lonVar, []string{"lat", "lon"}, []float32{0})
	h.AddVariable(gridAreaVar, []string{"lat", "lon"}, []float32{0})
	h.AddVariable(basisRegionsVar, []string{"lat", "lon"}, []float32{0})
	for month := range monthVals {
		h.AddVariable(carbonVar(month), []string{"lat", "lon"}, []float32{0})
		for source := range partition {
			h.AddVariable(partitionVar(month, source), []string{"lat", "lon"}, []float32{0})
		}
	}
	h.Define()
	for _, err := range h.Check() {
		t.Fatal(err)
	}

	ff, err := os.Create(filepath.Join(dir, (&Archive{}).fileName(year)))
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(name string, vals []float32) {
		t.Helper()
		end := h.Lengths(name)
		start := make([]int, len(end))
		w := f.Writer(name, start, end)
		if _, err := w.Write(vals); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	lat2d := make([]float32, testNy*testNx)
	lon2d := make([]float32, testNy*testNx)
	basis := make([]float32, testNy*testNx)
	for i := 0; i < testNy; i++ {
		for j := 0; j < testNx; j++ {
			lat2d[i*testNx+j] = float32(i)
			lon2d[i*testNx+j] = float32(j)
			if j < testNx/2 {
				basis[i*testNx+j] = 1
			} else {
				basis[i*testNx+j] = 2
			}
		}
	}
	write(latVar, lat2d)
	write(lonVar, lon2d)
	write(gridAreaVar, uniform(area))
	write(basisRegionsVar, basis)
	for month, v := range monthVals {
		write(carbonVar(month), uniform(v))
		for source, frac := range partition {
			write(partitionVar(month, source), uniform(frac))
		}
	}
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
}

// openTestYear opens a synthetic archive file previously written into
// dir.
func openTestYear(t *testing.T, dir string, year int) *YearFile {
	t.Helper()
	a := &Archive{Base: dir}
	f, err := a.OpenYear(context.Background(), year)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// halfGridRegion is a rectangle covering the left half of the
// synthetic grid: columns 0 through testNx/2-1 in every row.
func halfGridRegion() geom.Polygon {
	return geom.Polygon{{
		geom.Point{X: -0.5, Y: -0.5},
		geom.Point{X: float64(testNx)/2 - 0.5, Y: -0.5},
		geom.Point{X: float64(testNx)/2 - 0.5, Y: float64(testNy) - 0.5},
		geom.Point{X: -0.5, Y: float64(testNy) - 0.5},
		geom.Point{X: -0.5, Y: -0.5},
	}}
}
