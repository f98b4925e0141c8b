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

	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

// regionTotal computes the area-weighted sum of field over the cells
// selected by mask. All three rasters must share the same shape. The
// inputs are not modified.
func regionTotal(field, area, mask *sparse.DenseArray) (float64, error) {
	if err := sameShape(field, area, "grid cell areas"); err != nil {
		return 0, err
	}
	if err := sameShape(field, mask, "region mask"); err != nil {
		return 0, err
	}
	product := make([]float64, len(field.Elements))
	for i, v := range field.Elements {
		product[i] = v * area.Elements[i] * mask.Elements[i]
	}
	return floats.Sum(product), nil
}

// regionTotals computes one area-weighted total per GFED basis region,
// plus a whole-globe total in the final position.
func regionTotals(field *sparse.DenseArray, g *GridMetadata) ([]float64, error) {
	totals := make([]float64, NumBasisRegions+1)
	for region := 1; region <= NumBasisRegions; region++ {
		t, err := regionTotal(field, g.Area, basisMask(g, region))
		if err != nil {
			return nil, err
		}
		totals[region-1] = t
	}
	t, err := regionTotal(field, g.Area, onesMask(g))
	if err != nil {
		return nil, err
	}
	totals[NumBasisRegions] = t
	return totals, nil
}

// mulDense returns the element-wise product of a and b.
func mulDense(a, b *sparse.DenseArray) (*sparse.DenseArray, error) {
	if err := sameShape(a, b, "multiplicand"); err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(a.Shape...)
	for i, v := range a.Elements {
		out.Elements[i] = v * b.Elements[i]
	}
	return out, nil
}

// sameShape returns an error if rasters a and b have different shapes.
func sameShape(a, b *sparse.DenseArray, name string) error {
	if len(a.Shape) != len(b.Shape) {
		return fmt.Errorf("gfed: %s has %d dimensions but the field has %d", name, len(b.Shape), len(a.Shape))
	}
	for i, n := range a.Shape {
		if b.Shape[i] != n {
			return fmt.Errorf("gfed: %s has shape %v but the field has shape %v", name, b.Shape, a.Shape)
		}
	}
	return nil
}
