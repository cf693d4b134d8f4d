package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore abstracts the object-storage backend. The disk implementation
// serves single-instance deployments; the interface exists so a bucketed
// remote store can be swapped in without touching the service.
type BlobStore interface {
	Put(bucket, key string, r io.Reader) error
	PublicURL(bucket, key string) string
}

// DiskStore writes blobs under a local directory, one subdirectory per
// bucket. Keys may contain path separators.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *DiskStore) Put(bucket, key string, r io.Reader) error {
	path := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

func (s *DiskStore) PublicURL(bucket, key string) string {
	return s.baseURL + "/" + bucket + "/" + key
}
