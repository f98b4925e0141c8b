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
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// errNotFound reports that a remote object does not exist. A missing
// object is not a transport failure: it means the archive holds no
// data at the requested location.
var errNotFound = errors.New("object not found")

// fetch makes the archive object at path available as a local file and
// returns the local path. The path may be an existing local file, an
// http:// or https:// URL, or a blob-store URL with one of the schemes
// accepted by OpenBucket. Transient transport failures are retried
// with exponential backoff; a missing object is reported as
// errNotFound without retrying.
func fetch(ctx context.Context, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return fetchHTTP(ctx, path)
	}

	if IsBlob(path) {
		return fetchBlob(ctx, path)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("gfed: %s: %w", path, errNotFound)
		}
		// A stat failure other than not-exist (for example a
		// permission problem or a non-directory path component) must
		// not be mistaken for a missing year.
		return "", fmt.Errorf("gfed: %s: %v", path, err)
	}
	return path, nil
}

// retryPolicy returns the backoff schedule for transient transport
// failures.
func retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

// fetchHTTP downloads the file at the given URL into a temporary
// directory and returns the path to the downloaded file. A 404
// response is reported as errNotFound; 5xx responses and connection
// errors are retried; any other non-200 response aborts immediately.
func fetchHTTP(ctx context.Context, path string) (string, error) {
	dir, err := ioutil.TempDir("", "gfed")
	if err != nil {
		return "", fmt.Errorf("gfed: creating temporary download directory: %v", err)
	}
	local := filepath.Join(dir, filepath.Base(path))

	err = backoff.Retry(func() error {
		resp, err := http.Get(path)
		if err != nil {
			return fmt.Errorf("gfed: fetching %s: %v", path, err)
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("gfed: %s: %w", path, errNotFound))
		case resp.StatusCode >= 500:
			return fmt.Errorf("gfed: fetching %s: %s", path, resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("gfed: fetching %s: %s", path, resp.Status))
		}
		w, err := os.Create(local)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("gfed: creating file for download: %v", err))
		}
		_, err = io.Copy(w, resp.Body)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}, retryPolicy(ctx))
	if err != nil {
		return "", err
	}
	return local, nil
}

// fetchBlob downloads the specified file from blob storage into a
// temporary directory and returns the path to the downloaded file.
func fetchBlob(ctx context.Context, path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("gfed: parsing %s: %v", path, err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	dir, err := ioutil.TempDir("", "gfed")
	if err != nil {
		return "", fmt.Errorf("gfed: creating temporary download directory: %v", err)
	}
	local := filepath.Join(dir, filepath.Base(u.Path))
	key := strings.TrimPrefix(u.Path, "/")

	err = backoff.Retry(func() error {
		r, err := bucket.NewReader(ctx, key)
		if err != nil {
			if isNotExist(err) {
				return backoff.Permanent(fmt.Errorf("gfed: %s: %w", path, errNotFound))
			}
			return fmt.Errorf("gfed: opening %s: %v", path, err)
		}
		defer r.Close()
		w, err := os.Create(local)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("gfed: creating file for download: %v", err))
		}
		_, err = io.Copy(w, r)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}, retryPolicy(ctx))
	if err != nil {
		return "", err
	}
	return local, nil
}

// isNotExist reports whether err indicates a missing blob-store
// object, as opposed to a failure reaching the store.
func isNotExist(err error) bool {
	if os.IsNotExist(err) {
		return true
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return strings.Contains(err.Error(), "object doesn't exist")
}

// IsBlob returns whether the given path represents a blob-store
// object (i.e., whether it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where
// provider is the name of the storage provider and name is the name of
// the bucket. The currently accepted storage providers are "file" for
// the local filesystem (e.g., for testing), "gs" for Google Cloud
// Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("gfed: opening bucket %s: %v", bucketName, err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("gfed: opening bucket %s: invalid provider %s", bucketName, u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}
