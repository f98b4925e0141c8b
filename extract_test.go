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
	"testing"

	"github.com/sirupsen/logrus"
)

func TestAnnualCO2(t *testing.T) {
	dir := t.TempDir()
	writeYearFile(t, dir, 2000, allMonths(1), nil, 0)
	f := openTestYear(t, dir, 2000)
	defer f.Close()

	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	annual, err := f.AnnualCO2(g, false, logrus.StandardLogger())
	if err != nil {
		t.Fatal(err)
	}

	want := 12 * CToCO2 // 12 months × 1 unit of carbon each.
	for i, have := range annual.Elements {
		if different(want, have) {
			t.Fatalf("cell %d: want %g but have %g", i, want, have)
		}
	}
}

// TestAnnualCO2MissingMonths checks that months absent from the file
// contribute zero rather than aborting the year or being extrapolated.
func TestAnnualCO2MissingMonths(t *testing.T) {
	dir := t.TempDir()
	monthVals := allMonths(1)
	delete(monthVals, "04")
	delete(monthVals, "07")
	delete(monthVals, "11")
	writeYearFile(t, dir, 2000, monthVals, nil, 0)
	f := openTestYear(t, dir, 2000)
	defer f.Close()

	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	annual, err := f.AnnualCO2(g, false, logrus.StandardLogger())
	if err != nil {
		t.Fatal(err)
	}

	want := 9 * CToCO2 // only the 9 available months contribute.
	for i, have := range annual.Elements {
		if different(want, have) {
			t.Fatalf("cell %d: want %g but have %g", i, want, have)
		}
	}
}

// TestAnnualCO2Partitioning checks that the source-partitioned variant
// reproduces the direct total when the present fractions sum to one,
// and tolerates sources that are absent from the file.
func TestAnnualCO2Partitioning(t *testing.T) {
	dir := t.TempDir()
	// Only two of the six source datasets exist; together they
	// account for all emissions.
	writeYearFile(t, dir, 2000, allMonths(1), map[string]float64{"SAVA": 0.3, "DEFO": 0.7}, 0)
	f := openTestYear(t, dir, 2000)
	defer f.Close()

	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	annual, err := f.AnnualCO2(g, true, logrus.StandardLogger())
	if err != nil {
		t.Fatal(err)
	}

	want := 12 * CToCO2
	for i, have := range annual.Elements {
		if different(want, have) {
			t.Fatalf("cell %d: want %g but have %g", i, want, have)
		}
	}
}

func TestGridInvariants(t *testing.T) {
	dir := t.TempDir()
	writeYearFile(t, dir, 2000, allMonths(1), nil, 0)
	f := openTestYear(t, dir, 2000)
	defer f.Close()

	g, err := f.Grid()
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{testNy, testNx}; g.Shape()[0] != want[0] || g.Shape()[1] != want[1] {
		t.Errorf("grid shape: want %v but have %v", want, g.Shape())
	}
	// Left half of the grid is basis region 1, right half region 2.
	if have := g.BasisRegions.Get(0, 0); have != 1 {
		t.Errorf("basis region at (0,0): want 1 but have %g", have)
	}
	if have := g.BasisRegions.Get(0, testNx-1); have != 2 {
		t.Errorf("basis region at (0,%d): want 2 but have %g", testNx-1, have)
	}
}
