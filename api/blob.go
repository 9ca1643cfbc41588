package api

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pborman/uuid"
)

// BlobStore stores uploaded files and maps them to public URLs.
type BlobStore interface {
	// Put stores the content under a fresh name derived from ext
	// (".png", ".jpg") and returns the public URL.
	Put(ext string, r io.Reader) (string, error)
}

// DiskBlobStore writes blobs to a local directory served as static
// files under baseURL.
type DiskBlobStore struct {
	Dir     string
	BaseURL string
}

func NewDiskBlobStore(dir, baseURL string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskBlobStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskBlobStore) Put(ext string, r io.Reader) (string, error) {
	name := strings.ReplaceAll(uuid.New(), "-", "") + ext

	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return s.BaseURL + "/" + path.Clean(name), nil
}
