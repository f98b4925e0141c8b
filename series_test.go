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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

func TestAssemblerFinalize(t *testing.T) {
	a := newAssembler(2000, 2002, false)
	a.add(2000, 1e12)
	a.skip(2001)
	a.add(2002, 3e12)

	ts, sp := a.finalize(nil)
	if sp != nil {
		t.Error("want nil spatial series")
	}
	wantTime := []time.Time{
		time.Date(2000, time.December, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2001, time.December, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2002, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(wantTime, ts.Time) {
		t.Errorf("time axis: want %v but have %v", wantTime, ts.Time)
	}
	// One label per accumulated year; totals in Tg.
	if len(ts.Totals) != len(ts.Time) {
		t.Fatalf("series has %d values for %d labels", len(ts.Totals), len(ts.Time))
	}
	wantTotals := []float64{1, 0, 3}
	for i, want := range wantTotals {
		if different(want, ts.Totals[i]) {
			t.Errorf("year %d: want %g but have %g", 2000+i, want, ts.Totals[i])
		}
	}
	if !reflect.DeepEqual([]int{2001}, ts.Skipped) {
		t.Errorf("skipped years: want [2001] but have %v", ts.Skipped)
	}
}

func TestAssemblerSpatial(t *testing.T) {
	g := testGrid()
	a := newAssembler(2000, 2001, true)

	field := sparse.ZerosDense(testNy, testNx)
	for i := range field.Elements {
		field.Elements[i] = float64(i)
	}
	a.add(2000, 1)
	a.addField(2000, field)
	a.skip(2001)

	_, sp := a.finalize(g)
	if sp == nil {
		t.Fatal("want spatial series but have nil")
	}
	if want := []int{2, testNy, testNx}; !reflect.DeepEqual(want, sp.Data.Shape) {
		t.Fatalf("spatial shape: want %v but have %v", want, sp.Data.Shape)
	}
	for i := range field.Elements {
		if have := sp.Data.Elements[i]; different(field.Elements[i], have) {
			t.Fatalf("year 2000 cell %d: want %g but have %g", i, field.Elements[i], have)
		}
	}
	// The skipped year is an all-zero slab; no macro-unit conversion
	// is applied to spatial values.
	for i := testNy * testNx; i < 2*testNy*testNx; i++ {
		if sp.Data.Elements[i] != 0 {
			t.Fatalf("year 2001 cell %d: want 0 but have %g", i, sp.Data.Elements[i])
		}
	}
}

func TestTotalUnit(t *testing.T) {
	ts := &EmissionsTimeSeries{Totals: []float64{1}} // 1 Tg
	have := ts.Total(0)
	want := unit.New(1e9, unit.Kilogram) // = 1 Tg
	if !unit.DimensionsMatch(have, want) {
		t.Errorf("want dimensions %v but have %v", want, have)
	}
	if different(want.Value(), have.Value()) {
		t.Errorf("want %g kg but have %g kg", want.Value(), have.Value())
	}
}

func TestWriteNetCDF(t *testing.T) {
	g := testGrid()
	data := sparse.ZerosDense(2, testNy, testNx)
	for i := range data.Elements {
		data.Elements[i] = float64(i) * 1.5
	}
	sp := &SpatialTimeSeries{
		Time: yearLabels(2000, 2001),
		Lat:  g.Lat,
		Lon:  g.Lon,
		Data: data,
	}

	fname := filepath.Join(t.TempDir(), "emissions.nc")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	if err := sp.WriteNetCDF(f); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	cf, err := cdf.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{2, testNy, testNx}; !reflect.DeepEqual(want, cf.Header.Lengths(SpatialVarName)) {
		t.Fatalf("variable shape: want %v but have %v", want, cf.Header.Lengths(SpatialVarName))
	}
	rr := cf.Reader(SpatialVarName, nil, nil)
	buf := rr.Zero(-1)
	if _, err := rr.Read(buf); err != nil {
		t.Fatal(err)
	}
	for i, have := range buf.([]float64) {
		if different(data.Elements[i], have) {
			t.Fatalf("element %d: want %g but have %g", i, data.Elements[i], have)
		}
	}
}
