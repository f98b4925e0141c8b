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
	"os"
	"strings"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"
)

// DefaultArchiveURL is the public location of the GFED4.1s archive.
const DefaultArchiveURL = "https://www.geo.vu.nl/~gwerf/GFED/GFED4"

// ErrYearUnavailable reports that the archive holds no file for a
// requested year. It is a recoverable condition: the year is skipped
// and processing continues with the next year.
var ErrYearUnavailable = errors.New("no data available")

// An Archive provides access to a remote emissions archive holding one
// file per year.
type Archive struct {
	// Base is the location containing the per-year files. It may be a
	// local directory, an http(s) URL, or a blob-store URL with one
	// of the schemes accepted by OpenBucket.
	Base string

	// CacheSize is the number of downloaded year files to keep
	// available for reuse within this process. The default is 4.
	CacheSize int

	cacheOnce sync.Once
	cache     *requestcache.Cache
}

// fileName returns the name of the archive file for the given year.
// The naming convention changed with the beta release covering 2017
// and later years.
func (a *Archive) fileName(year int) string {
	if year < betaYear {
		return fmt.Sprintf("GFED4.1s_%d.hdf5", year)
	}
	return fmt.Sprintf("GFED4.1s_%d_beta.hdf5", year)
}

// path returns the full archive location of the file for year.
func (a *Archive) path(year int) string {
	return strings.TrimSuffix(a.Base, "/") + "/" + a.fileName(year)
}

// OpenYear opens the archive file for the given year. If the archive
// holds no file for that year, the returned error matches
// ErrYearUnavailable. The caller is responsible for closing the
// returned file.
func (a *Archive) OpenYear(ctx context.Context, year int) (*YearFile, error) {
	a.cacheOnce.Do(func() {
		size := a.CacheSize
		if size == 0 {
			size = 4
		}
		a.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return fetch(ctx, a.path(request.(int)))
		}, 1, requestcache.Deduplicate(), requestcache.Memory(size))
	})
	req := a.cache.NewRequest(ctx, year, a.fileName(year))
	local, err := req.Result()
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("gfed: year %d: %w", year, ErrYearUnavailable)
		}
		return nil, err
	}
	f, err := os.Open(local.(string))
	if err != nil {
		return nil, fmt.Errorf("gfed: opening %s: %v", local, err)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gfed: reading %s: %v", a.fileName(year), err)
	}
	return &YearFile{Year: year, file: f, cdf: cf}, nil
}

// A YearFile is an open archive file holding one year of emissions
// data.
type YearFile struct {
	// Year is the calendar year the file covers.
	Year int

	file *os.File
	cdf  *cdf.File
}

// Close releases the resources associated with the file.
func (f *YearFile) Close() error { return f.file.Close() }
