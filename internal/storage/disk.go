package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores objects as files under a root directory. Keys map directly to
// relative paths; path traversal outside the root is rejected.
type Disk struct {
	root      string
	publicURL string
}

// NewDisk creates a disk store rooted at root, creating it if needed.
func NewDisk(root string, publicURL string) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("disk storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &Disk{
		root:      root,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (d *Disk) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(d.root, clean), nil
}

func (d *Disk) Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	// Rename so readers never observe a half-written object.
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", key, err)
	}
	return nil
}

func (d *Disk) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

func (d *Disk) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (d *Disk) Exists(ctx context.Context, key string) bool {
	path, err := d.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (d *Disk) URL(key string) string {
	if d.publicURL != "" {
		return d.publicURL + "/" + key
	}
	return "/objects/" + key
}

func (d *Disk) Ping(ctx context.Context) error {
	if _, err := os.Stat(d.root); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	return nil
}
