/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/chainguard-dev/clog"

	"chainguard.dev/evalcookbook/platform"
)

const gcsScheme = "gs://"

// Open opens a scenario file from a local path or a gs://bucket/object URI.
// A missing or unreadable local file, a malformed URI and a missing object
// are platform.ErrValidation. Storage client and transfer failures are
// platform.ErrUpstream.
func Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	const op = "open scenario file"
	if !strings.HasPrefix(uri, gcsScheme) {
		f, err := os.Open(uri)
		if err != nil {
			return nil, &platform.Error{Op: op, Kind: platform.ErrValidation, Err: err}
		}
		return f, nil
	}

	bucket, object, err := splitGCS(uri)
	if err != nil {
		return nil, &platform.Error{Op: op, Kind: platform.ErrValidation, Err: err}
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, &platform.Error{Op: op, Kind: platform.ErrUpstream, Err: fmt.Errorf("creating storage client: %w", err)}
	}
	clog.FromContext(ctx).With("bucket", bucket, "object", object).Info("Reading scenario file from Cloud Storage")

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, &platform.Error{Op: op, Kind: storageKind(err), Err: fmt.Errorf("reading %s: %w", uri, err)}
	}
	return &gcsReader{Reader: r, client: client}, nil
}

// storageKind classifies a Cloud Storage error.
func storageKind(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, storage.ErrBucketNotExist):
		return platform.ErrValidation
	}
	return platform.ErrUpstream
}

// Load returns the raw contents of a scenario file from a local path or gs:// URI.
func Load(ctx context.Context, uri string) ([]byte, error) {
	rc, err := Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		kind := platform.ErrValidation
		if strings.HasPrefix(uri, gcsScheme) {
			kind = storageKind(err)
		}
		return nil, &platform.Error{Op: "load scenario file", Kind: kind, Err: fmt.Errorf("reading %s: %w", uri, err)}
	}
	return data, nil
}

func splitGCS(uri string) (bucket, object string, err error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid Cloud Storage URI %q, expected gs://bucket/object", uri)
	}
	return bucket, object, nil
}

// gcsReader closes the storage client along with the object reader.
type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (g *gcsReader) Close() error {
	rerr := g.Reader.Close()
	cerr := g.client.Close()
	if rerr != nil {
		return rerr
	}
	return cerr
}
