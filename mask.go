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
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"
)

// A Masker selects the grid cells belonging to a geographic region.
type Masker interface {
	// Mask returns a raster matching the grid shape with ones at the
	// cells belonging to the region and zeros elsewhere.
	Mask(g *GridMetadata) (*sparse.DenseArray, error)
}

// maskCell computes a region mask on first use and reuses it for the
// remainder of a run. Mask computation is an expensive geometry
// operation and the grid is invariant across years, so one computation
// serves the whole analysis period.
type maskCell struct {
	once sync.Once
	mask *sparse.DenseArray
	err  error
}

func (c *maskCell) get(m Masker, g *GridMetadata) (*sparse.DenseArray, error) {
	c.once.Do(func() {
		c.mask, c.err = m.Mask(g)
	})
	return c.mask, c.err
}

// A PolygonMasker selects the grid cells whose centers fall within a
// polygonal region.
type PolygonMasker struct {
	// Region is the geographic region of interest, with coordinates
	// in the same longitude/latitude system as the grid axes.
	Region geom.Polygonal
}

// Mask implements the Masker interface.
func (m *PolygonMasker) Mask(g *GridMetadata) (*sparse.DenseArray, error) {
	if m.Region == nil {
		return nil, fmt.Errorf("gfed: polygon masker has nil region")
	}
	index := rtree.NewTree(25, 50)
	for _, p := range m.Region.Polygons() {
		index.Insert(p)
	}
	mask := sparse.ZerosDense(g.Shape()...)
	for i, lat := range g.Lat {
		for j, lon := range g.Lon {
			pt := geom.Point{X: lon, Y: lat}
			for _, pI := range index.SearchIntersect(pt.Bounds()) {
				if pt.Within(pI.(geom.Polygon)) != geom.Outside {
					mask.Set(1, i, j)
					break
				}
			}
		}
	}
	return mask, nil
}

// A BasisRegionMasker selects the grid cells assigned to one GFED
// basis region.
type BasisRegionMasker struct {
	// Region is the basis-region identifier, in [1, NumBasisRegions].
	Region int
}

// Mask implements the Masker interface.
func (m BasisRegionMasker) Mask(g *GridMetadata) (*sparse.DenseArray, error) {
	if m.Region < 1 || m.Region > NumBasisRegions {
		return nil, fmt.Errorf("gfed: basis region %d out of range [1, %d]", m.Region, NumBasisRegions)
	}
	return basisMask(g, m.Region), nil
}

// basisMask returns the mask of cells assigned the given basis-region
// identifier.
func basisMask(g *GridMetadata, region int) *sparse.DenseArray {
	mask := sparse.ZerosDense(g.Shape()...)
	for i, v := range g.BasisRegions.Elements {
		if int(v) == region {
			mask.Elements[i] = 1
		}
	}
	return mask
}

// globeMasker selects every grid cell.
type globeMasker struct{}

func (globeMasker) Mask(g *GridMetadata) (*sparse.DenseArray, error) {
	return onesMask(g), nil
}

func onesMask(g *GridMetadata) *sparse.DenseArray {
	mask := sparse.ZerosDense(g.Shape()...)
	for i := range mask.Elements {
		mask.Elements[i] = 1
	}
	return mask
}

// LoadRegion reads the polygons from the given shapefile whose
// attribute column attr equals name and merges them into a single
// region suitable for use with a PolygonMasker. The shapefile must use
// the same longitude/latitude coordinate system as the grid.
func LoadRegion(filename, attr, name string) (geom.Polygonal, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening region shapefile: %v", err)
	}
	defer d.Close()
	var region geom.MultiPolygon
	for {
		g, fields, more := d.DecodeRowFields(attr)
		if !more {
			break
		}
		if fields[attr] != name {
			continue
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("gfed: region shapefile: geometry type %T is not polygonal", g)
		}
		region = append(region, p.Polygons()...)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("gfed: reading region shapefile: %v", err)
	}
	if len(region) == 0 {
		return nil, fmt.Errorf("gfed: region shapefile: no rows with %s = %q", attr, name)
	}
	return region, nil
}
