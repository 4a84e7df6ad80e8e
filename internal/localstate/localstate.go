// Package localstate keeps per-owner client state in a TOML file, the
// command-line counterpart of the app_state table.
package localstate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"budget/internal/budget"
)

// File is a ports.VisitStore backed by a TOML document shaped like
//
//	[budget_last_visit.alice]
//	month = 5
//	year = 2024
type File struct {
	path string
	mu   sync.Mutex
}

type document struct {
	LastVisit map[string]budget.MonthWindow `toml:"budget_last_visit"`
}

func New(path string) *File {
	return &File{path: path}
}

// DefaultPath returns the XDG state location of the file.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "budget", "state.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "budget", "state.toml")
}

func (f *File) Path() string { return f.path }

func (f *File) load() (document, error) {
	doc := document{LastVisit: map[string]budget.MonthWindow{}}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("reading state: %w", err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing state: %w", err)
	}
	if doc.LastVisit == nil {
		doc.LastVisit = map[string]budget.MonthWindow{}
	}
	return doc, nil
}

func (f *File) save(doc document) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	out, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating state file: %w", err)
	}
	defer out.Close()
	return toml.NewEncoder(out).Encode(doc)
}

func (f *File) LastVisit(_ context.Context, ownerID string) (budget.MonthWindow, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return budget.MonthWindow{}, false, err
	}
	w, ok := doc.LastVisit[ownerID]
	return w, ok, nil
}

func (f *File) SaveVisit(_ context.Context, ownerID string, w budget.MonthWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.LastVisit[ownerID] = w
	return f.save(doc)
}
