package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/post"
	"github.com/geocoder89/bloodhub/internal/domain/request"
)

// UserRecord is the persisted form of a user. Unlike user.User it serializes
// the password hash.
type UserRecord struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         *string   `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is the whole persisted state. It is always read and written as a
// unit.
type Document struct {
	Users    []UserRecord      `json:"users"`
	Requests []request.Request `json:"requests"`
	Posts    []post.Post       `json:"posts"`
}

func EmptyDocument() Document {
	return Document{
		Users:    []UserRecord{},
		Requests: []request.Request{},
		Posts:    []post.Post{},
	}
}

// DB owns the JSON file backing the document. All mutations go through
// Update, which holds mu for the full load-mutate-save cycle.
type DB struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open prepares the data file, writing an empty document if none exists.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("filestore: data file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create data dir: %w", err)
	}

	db := &DB{path: path, now: time.Now}

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := db.Save(context.Background(), EmptyDocument()); err != nil {
			return nil, err
		}
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: stat data file: %w", err)
	}

	return db, nil
}

func (d *DB) Path() string { return d.path }

// Load reads the full document. A missing file yields the empty document.
func (d *DB) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, fmt.Errorf("filestore: load: %w", err)
	}

	raw, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return EmptyDocument(), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("filestore: read: %w", err)
	}

	doc := EmptyDocument()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Document{}, fmt.Errorf("filestore: decode: %w", err)
		}
	}

	// a file with "users": null still decodes; keep collections non-nil
	if doc.Users == nil {
		doc.Users = []UserRecord{}
	}
	if doc.Requests == nil {
		doc.Requests = []request.Request{}
	}
	if doc.Posts == nil {
		doc.Posts = []post.Post{}
	}

	return doc, nil
}

// Save replaces the file with doc. The write goes to a temp file in the same
// directory and is renamed into place, so readers never see a partial file.
func (d *DB) Save(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("filestore: save: %w", err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// removes the temp file on any failure below; after rename it is gone
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close: %w", err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("filestore: rename: %w", err)
	}

	return nil
}

// Update runs fn against a freshly loaded document and saves the result.
// If fn fails nothing is written.
func (d *DB) Update(ctx context.Context, fn func(doc *Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.Load(ctx)
	if err != nil {
		return err
	}

	if err := fn(&doc); err != nil {
		return err
	}

	return d.Save(ctx, doc)
}

// View loads the document under the writer lock so it never observes a
// half-applied Update from this process.
func (d *DB) View(ctx context.Context, fn func(doc Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.Load(ctx)
	if err != nil {
		return err
	}

	return fn(doc)
}

// Ping reports whether the data file is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := os.Stat(d.path)
	return err
}
