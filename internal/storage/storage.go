package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"
)

// Upload is one photo handed over by the posts handler.
type Upload struct {
	Filename    string // as sent by the client; only the extension is kept
	Body        io.Reader
	Size        int64
	ContentType string
	// BaseURL is the public origin the URL is built on when the store has
	// none configured, e.g. "http://localhost:4000".
	BaseURL string
}

// PhotoStore persists an upload and returns a URL the frontend can fetch.
// Delete takes a URL returned by Save; a photo that is already gone is not an
// error.
type PhotoStore interface {
	Save(ctx context.Context, in Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// ObjectName builds a collision-avoiding name:
// photo-<unix millis>-<random digits><original extension>.
func ObjectName(original string, now time.Time) string {
	return fmt.Sprintf("photo-%d-%d%s", now.UnixMilli(), rand.Int64N(1_000_000_000), safeExt(original))
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}

	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}

	return ext
}

// objectFromURL returns the object name at the end of a URL built by a store.
func objectFromURL(url string) (string, error) {
	name := url[strings.LastIndex(url, "/")+1:]
	if !strings.HasPrefix(name, "photo-") || strings.ContainsAny(name, `\:`) {
		return "", fmt.Errorf("not a stored photo url: %q", url)
	}
	return name, nil
}
