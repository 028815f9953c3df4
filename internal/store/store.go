// Package store keeps the event templates in memory and persists them as a
// JSON array.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	appLog "calplan/internal/log"
	"calplan/internal/model"
)

// LoadStatus tells how Open found the data file.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadMissing
	LoadCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// LoadResult describes the outcome of reading the data file. Warning is set
// only for LoadCorrupt. Preserved is the copy of a corrupt file that later
// saves never touch; it is empty when the copy could not be made.
type LoadResult struct {
	Status    LoadStatus
	Warning   error
	Preserved string
}

var ErrNotFound = errors.New("template not found")

// Store is the ordered collection of templates backed by one file.
// It is not safe for concurrent use.
type Store struct {
	path      string
	templates []model.Template
}

// Open reads path. A missing file yields an empty store and LoadMissing.
// A file that does not decode yields an empty store, LoadCorrupt and a
// warning; its content is first copied to a timestamped .corrupt file next
// to it. Other read errors are returned.
func Open(path string) (*Store, LoadResult, error) {
	if path == "" {
		return nil, LoadResult{}, errors.New("data path is empty")
	}
	s := &Store{path: path, templates: []model.Template{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("store: data file not found, starting empty", "path", path)
			return s, LoadResult{Status: LoadMissing}, nil
		}
		return nil, LoadResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	var templates []model.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		warn := fmt.Errorf("decode %s: %w", path, err)
		res := LoadResult{Status: LoadCorrupt, Warning: warn}
		keep := CorruptPath(path, time.Now())
		if err := os.WriteFile(keep, data, 0o600); err != nil {
			appLog.Error("store: failed to preserve corrupt data file", err, "path", keep)
		} else {
			res.Preserved = keep
		}
		appLog.Error("store: data file is corrupt, starting empty", warn, "path", path, "preserved", res.Preserved)
		return s, res, nil
	}

	// Missing and repeated IDs both get a fresh one.
	assigned := 0
	seen := make(map[string]bool, len(templates))
	for i := range templates {
		if templates[i].ID == "" || seen[templates[i].ID] {
			templates[i].ID = uuid.NewString()
			assigned++
		}
		seen[templates[i].ID] = true
	}
	if templates == nil {
		templates = []model.Template{}
	}
	s.templates = templates

	appLog.Info("store: loaded templates", "path", path, "count", len(templates), "ids_assigned", assigned)
	return s, LoadResult{Status: LoadOK}, nil
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of templates.
func (s *Store) Len() int {
	return len(s.templates)
}

// Snapshot returns a copy of the templates in insertion order.
func (s *Store) Snapshot() []model.Template {
	out := make([]model.Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// Get returns the template with the given ID.
func (s *Store) Get(id string) (model.Template, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Template{}, false
	}
	return s.templates[i], true
}

// Has reports whether a template with the given ID exists.
func (s *Store) Has(id string) bool {
	return s.index(id) >= 0
}

// Add appends t and returns its ID. A fresh ID is assigned when t has none
// or when its ID is already taken.
func (s *Store) Add(t model.Template) string {
	if t.ID == "" || s.index(t.ID) >= 0 {
		t.ID = uuid.NewString()
	}
	s.templates = append(s.templates, t)
	return t.ID
}

// Replace overwrites the template with the given ID in place. The stored ID
// is kept regardless of t.ID.
func (s *Store) Replace(id string, t model.Template) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	t.ID = id
	s.templates[i] = t
	return nil
}

// Delete removes the template with the given ID.
func (s *Store) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.templates = append(s.templates[:i], s.templates[i+1:]...)
	return nil
}

func (s *Store) index(id string) int {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return i
		}
	}
	return -1
}

// Save writes the whole collection to the data file. The previous file, if
// any, is copied to path+".backup" first; the new content is written to a
// temp file in the same directory and renamed over the target.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.templates, "", "  ")
	if err != nil {
		return fmt.Errorf("encode templates: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := backup(s.path); err != nil {
		return fmt.Errorf("backup %s: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(dir, ".calplan-events-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", s.path, err)
	}

	appLog.Debug("store: saved templates", "path", s.path, "count", len(s.templates))
	return nil
}

// CorruptPath is where Open keeps an unreadable data file found at t.
func CorruptPath(path string, t time.Time) string {
	return path + ".corrupt-" + t.Format("20060102-150405")
}

// BackupPath is where Save keeps the previous version of path.
func BackupPath(path string) string {
	return path + ".backup"
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.WriteFile(BackupPath(path), data, 0o600)
}
