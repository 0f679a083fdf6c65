package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dropship/backend/internal/domain/sourcing"
)

// ReplayExtractor serves canned snapshots keyed by page URL
type ReplayExtractor struct {
	strategy *Strategy

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

var _ sourcing.PageExtractor = (*ReplayExtractor)(nil)

// NewReplayExtractor creates an empty replay extractor
func NewReplayExtractor(strategy *Strategy) *ReplayExtractor {
	if strategy == nil {
		strategy = DefaultStrategy()
	}
	return &ReplayExtractor{
		strategy:  strategy,
		snapshots: make(map[string]*Snapshot),
	}
}

// Add registers a snapshot under its page URL
func (r *ReplayExtractor) Add(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.PageURL] = snap
}

// AddHTML captures the strategy's selectors from static HTML and registers
// the result under pageURL
func (r *ReplayExtractor) AddHTML(pageURL string, document []byte) error {
	snap, err := NewHTMLSnapshot(pageURL, bytes.NewReader(document), r.strategy.Queries())
	if err != nil {
		return err
	}
	r.Add(snap)
	return nil
}

// LoadDir loads fixtures listed in dir/manifest.json, a map of page URL to
// file name. .json files hold a Snapshot, anything else is read as HTML.
func (r *ReplayExtractor) LoadDir(dir string) error {
	manifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return fmt.Errorf("failed to read replay manifest: %w", err)
	}

	var files map[string]string
	if err := json.Unmarshal(manifest, &files); err != nil {
		return fmt.Errorf("failed to parse replay manifest: %w", err)
	}

	for pageURL, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read fixture %s: %w", name, err)
		}

		if strings.EqualFold(filepath.Ext(name), ".json") {
			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("failed to parse fixture %s: %w", name, err)
			}
			snap.PageURL = pageURL
			r.Add(&snap)
			continue
		}
		if err := r.AddHTML(pageURL, data); err != nil {
			return fmt.Errorf("fixture %s: %w", name, err)
		}
	}
	return nil
}

// Len returns the number of registered pages
func (r *ReplayExtractor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

// Extract runs the strategy on the snapshot registered for pageURL
func (r *ReplayExtractor) Extract(ctx context.Context, pageURL string, hints sourcing.Hints) (*sourcing.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}

	r.mu.RLock()
	snap, ok := r.snapshots[pageURL]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, pageURL)
	}

	return r.strategy.Extract(snap, hints), nil
}
