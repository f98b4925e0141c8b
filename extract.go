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
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// ErrFieldMissing reports a dataset that is absent from an otherwise
// readable archive file. A missing monthly dataset contributes zero to
// the annual total; it does not abort the year.
var ErrFieldMissing = errors.New("dataset not present")

// readGrid reads the named 2-D dataset from the file.
func (f *YearFile) readGrid(name string) (*sparse.DenseArray, error) {
	dims := f.cdf.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("gfed: year %d: %s: %w", f.Year, name, ErrFieldMissing)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("gfed: year %d: %s has %d dimensions; want 2", f.Year, name, len(dims))
	}
	r := f.cdf.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("gfed: year %d: reading %s: %v", f.Year, name, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	default:
		return nil, fmt.Errorf("gfed: year %d: %s has unsupported type %T", f.Year, name, buf)
	}
	return data, nil
}

// Grid reads the time-invariant ancillary rasters and coordinate axes
// from the file. The coordinate datasets hold the full 2-D coordinate
// rasters; the axes are taken from their first column and row,
// respectively.
func (f *YearFile) Grid() (*GridMetadata, error) {
	lat2d, err := f.readGrid(latVar)
	if err != nil {
		return nil, err
	}
	lon2d, err := f.readGrid(lonVar)
	if err != nil {
		return nil, err
	}
	area, err := f.readGrid(gridAreaVar)
	if err != nil {
		return nil, err
	}
	basis, err := f.readGrid(basisRegionsVar)
	if err != nil {
		return nil, err
	}
	lat := make([]float64, lat2d.Shape[0])
	for i := range lat {
		lat[i] = lat2d.Get(i, 0)
	}
	lon := make([]float64, lon2d.Shape[1])
	for j := range lon {
		lon[j] = lon2d.Get(0, j)
	}
	g := &GridMetadata{Lat: lat, Lon: lon, Area: area, BasisRegions: basis}
	if err := g.checkShape(area, gridAreaVar); err != nil {
		return nil, err
	}
	if err := g.checkShape(basis, basisRegionsVar); err != nil {
		return nil, err
	}
	return g, nil
}

// AnnualCO2 sums the twelve monthly carbon emissions rasters in the
// file, converted to CO2 mass, into one annual raster matching the
// grid shape [g CO2 m-2 yr-1]. Months whose dataset is absent
// contribute zero and are logged.
//
// If partitioning is true, each month's total is instead assembled
// from the products of the carbon raster and the fractional
// contributions of the six source categories; absent source datasets
// likewise contribute zero.
func (f *YearFile) AnnualCO2(g *GridMetadata, partitioning bool, logger logrus.FieldLogger) (*sparse.DenseArray, error) {
	annual := sparse.ZerosDense(g.Shape()...)
	for _, month := range months {
		c, err := f.readGrid(carbonVar(month))
		if errors.Is(err, ErrFieldMissing) {
			logger.Warnf("gfed: year %d: month %s not available", f.Year, month)
			continue
		} else if err != nil {
			return nil, err
		}
		if err := g.checkShape(c, carbonVar(month)); err != nil {
			return nil, err
		}
		if partitioning {
			if err := f.addPartitioned(annual, c, g, month, logger); err != nil {
				return nil, err
			}
		} else {
			annual.AddDense(c.ScaleCopy(CToCO2))
		}
	}
	return annual, nil
}

// addPartitioned adds the month's CO2 emissions to the annual
// accumulator source category by source category. The fractional
// contributions of the categories sum to one where fire occurred, so
// with no missing datasets this is equivalent to adding the scaled
// carbon raster directly.
func (f *YearFile) addPartitioned(annual, c *sparse.DenseArray, g *GridMetadata, month string, logger logrus.FieldLogger) error {
	for _, source := range Sources {
		frac, err := f.readGrid(partitionVar(month, source))
		if errors.Is(err, ErrFieldMissing) {
			logger.Warnf("gfed: year %d: month %s: source %s not available", f.Year, month, source)
			continue
		} else if err != nil {
			return err
		}
		if err := g.checkShape(frac, partitionVar(month, source)); err != nil {
			return err
		}
		for i, v := range c.Elements {
			annual.Elements[i] += v * frac.Elements[i] * CToCO2
		}
	}
	return nil
}
