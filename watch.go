package mmd2img

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the delay after the last change event before a
// file is reprocessed, collapsing editor save bursts into one run.
const DefaultDebounce = time.Second

// defaultWatchSuffix selects which files trigger reprocessing.
const defaultWatchSuffix = ".md"

// Watcher subscribes to filesystem changes under an input tree and
// incrementally reprocesses changed documents through a Pipeline.
// Events for the same path within the debounce window coalesce into a
// single reprocessing call: each path has at most one pending timer,
// and a new event resets it.
type Watcher struct {
	pipeline  *Pipeline
	inputDir  string
	outputDir string
	opts      ProcessOptions

	debounce time.Duration
	suffix   string
	log      *log.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	ctx    context.Context
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchSuffix sets the file suffix that triggers reprocessing.
func WithWatchSuffix(suffix string) WatchOption {
	return func(w *Watcher) {
		w.suffix = suffix
	}
}

// WithWatchLogger sets the watcher's logger. Without it, logs are discarded.
func WithWatchLogger(logger *log.Logger) WatchOption {
	return func(w *Watcher) {
		w.log = logger
	}
}

// NewWatcher creates a Watcher that reprocesses documents under
// inputDir into outputDir whenever they change.
func NewWatcher(pipeline *Pipeline, inputDir, outputDir string, opts ProcessOptions, watchOpts ...WatchOption) *Watcher {
	w := &Watcher{
		pipeline:  pipeline,
		inputDir:  inputDir,
		outputDir: outputDir,
		opts:      opts,
		debounce:  DefaultDebounce,
		suffix:    defaultWatchSuffix,
		log:       log.NewWithOptions(io.Discard, log.Options{}),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range watchOpts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Directories created while
// watching are added to the watch set so new subtrees are covered.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	defer w.stopTimers()

	if err := addRecursive(fsw, w.inputDir); err != nil {
		return err
	}

	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	w.log.Info("watching for changes", "dir", w.inputDir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// handleEvent schedules reprocessing for relevant file changes and
// extends the watch set when directories appear.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(fsw, event.Name); err != nil {
				w.log.Warn("watching new directory failed", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	if !strings.HasSuffix(event.Name, w.suffix) {
		return
	}

	w.schedule(event.Name)
}

// schedule arms (or re-arms) the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		ctx := w.ctx
		w.mu.Unlock()

		if ctx == nil || ctx.Err() != nil {
			return
		}
		w.reprocess(ctx, path)
	})
}

// reprocess runs the changed file through the pipeline, mirroring its
// relative directory in the output tree.
func (w *Watcher) reprocess(ctx context.Context, path string) {
	w.log.Info("change detected", "file", path)

	outDir := w.outputDir
	if rel, err := filepath.Rel(w.inputDir, path); err == nil {
		outDir = filepath.Join(w.outputDir, filepath.Dir(rel))
	}

	if _, err := w.pipeline.ProcessFile(ctx, path, outDir, w.opts); err != nil {
		w.log.Error("reprocessing failed", "file", path, "error", err)
	}
}

// stopTimers cancels all pending debounce timers.
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

// addRecursive watches root and every subdirectory beneath it.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
