// Package watcher ingests documents dropped into a folder.
//
// File events are debounced per path so an editor's burst of writes results
// in one ingest. A changed file replaces the documents previously ingested
// from the same path; a removed file deletes them.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driving"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Action describes what the watcher did for a path.
type Action string

// Watcher actions.
const (
	ActionIngested Action = "ingested"
	ActionRemoved  Action = "removed"
	ActionSkipped  Action = "skipped"
	ActionFailed   Action = "failed"
)

// Result reports the outcome of processing one path.
type Result struct {
	Path       string
	Action     Action
	DocumentID string
	DocType    domain.DocumentType
	Err        error
}

type changeType int

const (
	changeUpsert changeType = iota
	changeRemove
)

type change struct {
	Type changeType
	Path string
}

// Watcher turns filesystem events under a root directory into pipeline calls.
type Watcher struct {
	root      string
	pipeline  driving.PipelineService
	documents driving.DocumentService
	debounce  time.Duration
	onResult  func(Result)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultHandler receives a Result for every processed path.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a watcher for root.
func New(root string, pipeline driving.PipelineService, documents driving.DocumentService, opts ...Option) *Watcher {
	w := &Watcher{
		root:      root,
		pipeline:  pipeline,
		documents: documents,
		debounce:  DefaultDebounce,
		onResult:  func(Result) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", w.root, err)
	}
	w.root = root

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, root); err != nil {
		return err
	}
	logger.Info("Watching %s", root)

	pending := make(map[string]change)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(root, event.Name) {
				if err := addTree(fsw, event.Name); err != nil {
					logger.Warn("Cannot watch %s: %v", event.Name, err)
				}
				continue
			}
			c := w.handleEvent(event)
			if c == nil {
				continue
			}
			pending[c.Path] = *c
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-fire:
			fire = nil
			for path, c := range pending {
				w.onResult(w.apply(ctx, c))
				delete(pending, path)
			}
		}
	}
}

// handleEvent maps a filesystem event to a pending change.
// Returns nil for events that need no work.
func (w *Watcher) handleEvent(event fsnotify.Event) *change {
	if isHidden(w.root, event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &change{Type: changeRemove, Path: event.Name}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		return &change{Type: changeUpsert, Path: event.Name}
	default:
		return nil
	}
}

// apply runs a change against the pipeline. A changed file is ingested
// before its earlier copies are deleted, so a failed ingest leaves the
// previous version searchable.
func (w *Watcher) apply(ctx context.Context, c change) Result {
	previous, err := w.previousIngests(ctx, c.Path)
	if err != nil {
		return Result{Path: c.Path, Action: ActionFailed, Err: err}
	}

	if c.Type == changeRemove {
		if err := w.delete(ctx, c.Path, previous); err != nil {
			return Result{Path: c.Path, Action: ActionFailed, Err: err}
		}
		return Result{Path: c.Path, Action: ActionRemoved}
	}

	result, err := w.pipeline.IngestFile(ctx, c.Path)
	switch {
	case errors.Is(err, domain.ErrUnsupportedType), errors.Is(err, domain.ErrEmptyText):
		return Result{Path: c.Path, Action: ActionSkipped, Err: err}
	case err != nil:
		if len(previous) > 0 {
			logger.Warn("Keeping previous ingest of %s: %v", c.Path, err)
		}
		return Result{Path: c.Path, Action: ActionFailed, Err: err}
	}

	ingested := Result{
		Path:       c.Path,
		Action:     ActionIngested,
		DocumentID: result.DocumentID,
		DocType:    result.DocType,
	}
	// The new document is stored either way; a failed cleanup only leaves
	// a stale duplicate behind.
	if err := w.delete(ctx, c.Path, previous); err != nil {
		ingested.Err = err
	}
	return ingested
}

// previousIngests returns the ids of documents ingested from path.
func (w *Watcher) previousIngests(ctx context.Context, path string) ([]string, error) {
	docs, err := w.documents.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	var ids []string
	for i := range docs {
		if docs[i].FilePath == path {
			ids = append(ids, docs[i].ID)
		}
	}
	return ids, nil
}

// delete removes the given documents. Documents already gone are ignored.
func (w *Watcher) delete(ctx context.Context, path string, ids []string) error {
	for _, id := range ids {
		if err := w.pipeline.DeleteDocument(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		logger.Debug("Removed previous ingest %s of %s", id, path)
	}
	return nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path below root starts with a dot.
func isHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
