package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the route the router serves disk uploads from.
const PublicPrefix = "/uploads"

// DiskStore saves uploaded photos under a base directory.
type DiskStore struct {
	basePath  string
	publicURL string
	now       func() time.Time
}

// NewDiskStore creates the base directory if missing. publicURL may be empty,
// in which case each Upload's BaseURL is used.
func NewDiskStore(basePath, publicURL string) (*DiskStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskStore{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

func (d *DiskStore) Dir() string { return d.basePath }

// Save writes the upload under a fresh name and returns its public URL.
func (d *DiskStore) Save(ctx context.Context, in Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, out, err := d.create(in.Filename)
	if err != nil {
		return "", err
	}

	target := filepath.Join(d.basePath, name)
	if _, err := io.Copy(out, in.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close file: %w", err)
	}

	base := d.publicURL
	if base == "" {
		base = strings.TrimRight(in.BaseURL, "/")
	}

	return base + PublicPrefix + "/" + name, nil
}

// Delete removes the file behind a URL returned by Save.
func (d *DiskStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := objectFromURL(url)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(d.basePath, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// create opens a new file exclusively, retrying on the unlikely name clash.
func (d *DiskStore) create(original string) (string, *os.File, error) {
	for attempt := 0; attempt < 3; attempt++ {
		name := ObjectName(original, d.now())
		f, err := os.OpenFile(filepath.Join(d.basePath, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return name, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, fmt.Errorf("create file: %w", err)
		}
	}
	return "", nil, errors.New("create file: could not pick a unique name")
}
