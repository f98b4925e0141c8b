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

// Package gfed retrieves fire emissions estimates from the Global Fire
// Emissions Database (GFED4.1s) archive and aggregates them into annual
// regional CO2 emissions time series.
//
// The archive holds one hierarchical binary file per year. Each file
// contains monthly gridded carbon emissions rasters on a 0.25° global
// grid (720 rows × 1440 columns), fractional contributions of six fire
// source categories, and time-invariant ancillary rasters: grid cell
// areas, basis-region identifiers, and the coordinate axes.
//
// Processing is based on the GFED4s analysis script available at
// https://www.geo.vu.nl/~gwerf/GFED/GFED4/ancill/code/get_GFED4s_CO_emissions.py.
package gfed

import (
	"fmt"

	"github.com/ctessum/sparse"
)

const (
	// CToCO2 converts carbon mass to carbon dioxide mass.
	CToCO2 = 3.66

	// teragramsPerGram converts the native archive mass unit (g) to
	// the reporting unit of the output time series (Tg, equivalently
	// million metric tons).
	teragramsPerGram = 1e-12

	// betaYear is the first year whose archive files carry the "_beta"
	// suffix; the naming convention changed with the GFED4.1s beta
	// release.
	betaYear = 2017

	// NumBasisRegions is the number of GFED basis regions.
	NumBasisRegions = 14
)

// months are the keys used for the monthly dataset groups within each
// archive file.
var months = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}

// Sources are the GFED fire source categories: savanna, boreal forest,
// temperate forest, tropical deforestation, peat, and agricultural
// waste burning.
var Sources = []string{"SAVA", "BORF", "TEMF", "DEFO", "PEAT", "AGRI"}

// BasisRegionNames are the names of the GFED basis regions; the region
// with identifier i is named BasisRegionNames[i-1].
var BasisRegionNames = []string{
	"BONA", "TENA", "CEAM", "NHSA", "SHSA", "EURO", "MIDE",
	"NHAF", "SHAF", "BOAS", "CEAS", "SEAS", "EQAS", "AUST",
}

// Dataset paths within each archive file.
const (
	basisRegionsVar = "ancill/basis_regions"
	gridAreaVar     = "ancill/grid_cell_area"
	latVar          = "lat"
	lonVar          = "lon"
)

// carbonVar returns the dataset path of the carbon emissions raster
// for the given month.
func carbonVar(month string) string { return "emissions/" + month + "/C" }

// partitionVar returns the dataset path of the fractional contribution
// of the given source category for the given month.
func partitionVar(month, source string) string {
	return "emissions/" + month + "/partitioning/C_" + source
}

// GridMetadata holds the time-invariant rasters and coordinate axes of
// the archive grid. It is read once, from the first year of an
// analysis that successfully opens, and treated as read-only for the
// remainder of the run.
type GridMetadata struct {
	// Lat and Lon are the cell-center coordinates of the grid rows
	// and columns, respectively [degrees].
	Lat, Lon []float64

	// Area is the surface area of each grid cell [m2].
	Area *sparse.DenseArray

	// BasisRegions assigns each grid cell a GFED basis-region
	// identifier in [1, NumBasisRegions], or 0 for ocean.
	BasisRegions *sparse.DenseArray
}

// Shape returns the raster shape (rows, columns) of the grid.
func (g *GridMetadata) Shape() []int { return []int{len(g.Lat), len(g.Lon)} }

// checkShape returns an error if raster a does not match the grid
// shape. Arithmetic between mismatched rasters would silently corrupt
// results, so callers must treat the error as fatal.
func (g *GridMetadata) checkShape(a *sparse.DenseArray, name string) error {
	shape := g.Shape()
	if len(a.Shape) != len(shape) || a.Shape[0] != shape[0] || a.Shape[1] != shape[1] {
		return fmt.Errorf("gfed: %s has shape %v but the grid has shape %v", name, a.Shape, shape)
	}
	return nil
}
