// Package objectstore wraps gocloud.dev/blob behind the same scheme
// dispatch the original source's object_store crate used: gs:// and s3://
// in production, file:// for local development, and mem:// for tests.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Store is a thin, testable facade over a gocloud.dev bucket.
type Store struct {
	bucket *blob.Bucket
	prefix string
}

// Open opens the bucket named by bucketURL (e.g. "gs://my-bucket",
// "s3://my-bucket", "file:///var/lib/videos", "mem://"). keyPrefix is
// prepended to every key so multiple logical stores can share one bucket.
func Open(ctx context.Context, bucketURL, keyPrefix string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("objectstore: open bucket %s: %w", bucketURL, err)
	}
	return &Store{bucket: bucket, prefix: keyPrefix}, nil
}

// Close releases the underlying bucket connection.
func (s *Store) Close() error {
	return s.bucket.Close()
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + name
}

// Exists reports whether an object exists at name.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, s.key(name))
	if err != nil {
		return false, fmt.Errorf("objectstore: exists %s: %w", name, err)
	}
	return ok, nil
}

// NewReader opens a streaming reader for the object at name. The caller must
// Close it.
func (s *Store) NewReader(ctx context.Context, name string) (*blob.Reader, error) {
	r, err := s.bucket.NewReader(ctx, s.key(name), nil)
	if err != nil {
		return nil, fmt.Errorf("objectstore: read %s: %w", name, err)
	}
	return r, nil
}

// WriteOptions controls content metadata on upload.
type WriteOptions struct {
	ContentType  string
	CacheControl string
}

// NewWriter opens a streaming writer for name, overwriting any existing
// object at that key. The caller must Close it to flush and commit the
// upload.
func (s *Store) NewWriter(ctx context.Context, name string, opts WriteOptions) (*blob.Writer, error) {
	w, err := s.bucket.NewWriter(ctx, s.key(name), &blob.WriterOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: write %s: %w", name, err)
	}
	return w, nil
}

// Put uploads all of data to name in one call.
func (s *Store) Put(ctx context.Context, name string, data io.Reader, opts WriteOptions) error {
	w, err := s.NewWriter(ctx, name, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("objectstore: copy into %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("objectstore: commit %s: %w", name, err)
	}
	return nil
}

// Delete removes the object at name. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Delete(ctx, s.key(name)); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return fmt.Errorf("objectstore: delete %s: %w", name, err)
	}
	return nil
}
