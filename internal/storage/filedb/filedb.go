// Package filedb persists JSON collections and shared id counters in a data
// directory. Every mutation is a full read-modify-write of the affected files
// under one process-wide mutex.
package filedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vcdemo/internal/sentinel"
)

// Collection file names inside the data directory.
const (
	UsersFile       = "users.json"
	CredentialsFile = "credentials.json"
	CountersFile    = "counters.json"
)

// Counters holds the next id to assign per collection.
type Counters struct {
	UserCurrentID       int64 `json:"userCurrentId"`
	CredentialCurrentID int64 `json:"credentialCurrentId"`
}

func defaultCounters() Counters {
	return Counters{UserCurrentID: 1, CredentialCurrentID: 1}
}

// DB owns a data directory.
type DB struct {
	dir         string
	beforeWrite func(name string) error

	mu          sync.Mutex
	initialized bool
}

// Option configures a DB.
type Option func(*DB)

// WithWriteHook runs fn before every file replacement. A non-nil error aborts
// that write and is returned to the caller.
func WithWriteHook(fn func(name string) error) Option {
	return func(db *DB) {
		db.beforeWrite = fn
	}
}

// Open returns a DB rooted at dir. Files are created lazily on first use.
func Open(dir string, opts ...Option) *DB {
	db := &DB{dir: dir}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Dir returns the data directory.
func (db *DB) Dir() string {
	return db.dir
}

// Tx is the view of the data directory available inside View and Update.
type Tx struct {
	db *DB
}

// View runs fn while holding the database lock.
func (db *DB) View(ctx context.Context, fn func(tx *Tx) error) error {
	return db.Update(ctx, fn)
}

// Update runs fn while holding the database lock so the whole
// read-modify-write cycle is serialized within the process.
func (db *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.ensure(); err != nil {
		return err
	}
	return fn(&Tx{db: db})
}

// Health verifies the data directory is usable.
func (db *DB) Health(ctx context.Context) error {
	return db.View(ctx, func(*Tx) error {
		info, err := os.Stat(db.dir)
		if err != nil {
			return fmt.Errorf("stat data dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data dir %s is not a directory", db.dir)
		}
		return nil
	})
}

func (db *DB) ensure() error {
	if db.initialized {
		return nil
	}
	if err := os.MkdirAll(db.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	defaults := map[string]any{
		UsersFile:       []any{},
		CredentialsFile: []any{},
		CountersFile:    defaultCounters(),
	}
	for name, value := range defaults {
		path := filepath.Join(db.dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if err := db.writeJSON(name, value); err != nil {
			return err
		}
	}
	db.initialized = true
	return nil
}

// ReadCollection decodes a JSON array file into out.
func (tx *Tx) ReadCollection(name string, out any) error {
	return tx.db.readJSON(name, out)
}

// WriteCollection replaces a JSON array file with v.
func (tx *Tx) WriteCollection(name string, v any) error {
	return tx.db.writeJSON(name, v)
}

// Counters reads the shared id counters.
func (tx *Tx) Counters() (Counters, error) {
	c := defaultCounters()
	if err := tx.db.readJSON(CountersFile, &c); err != nil {
		return Counters{}, err
	}
	return c, nil
}

// WriteCounters persists the shared id counters.
func (tx *Tx) WriteCounters(c Counters) error {
	return tx.db.writeJSON(CountersFile, c)
}

func (db *DB) readJSON(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(db.dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w: %w", name, sentinel.ErrCorrupt, err)
	}
	return nil
}

// writeJSON writes v to a temp file in the same directory and renames it over
// the target so readers never observe a partial file.
func (db *DB) writeJSON(name string, v any) error {
	if db.beforeWrite != nil {
		if err := db.beforeWrite(name); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(db.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(db.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
