// Package watcher implements the hot folder: images dropped into an input
// directory are prepared with the configured defaults and written as JPEGs
// into an output directory.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/formphoto-mcp/internal/config"
	"github.com/ironsheep/formphoto-mcp/internal/pipeline"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Result describes one processed file.
type Result struct {
	Source    string
	Output    string
	SizeBytes int
	InBounds  bool
	// Stale is set when a newer event for the same source arrived while
	// this one was processing; nothing was written.
	Stale bool
	Err   error
}

// Watcher monitors the input directory for new or modified images.
type Watcher struct {
	inputDir  string
	outputDir string
	debounce  time.Duration
	spec      pipeline.OutputSpec
	proc      *pipeline.Processor
	watcher   *fsnotify.Watcher
	results   chan Result

	// ctx is canceled by Stop so debounced runs still in flight end early.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[string]*time.Timer
	gens    map[string]*pipeline.Generation
	stopped bool
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for cfg.Watch using cfg.Defaults as the
// output spec.
func NewWatcher(cfg *config.Config, proc *pipeline.Processor) (*Watcher, error) {
	if err := cfg.ValidateWatch(); err != nil {
		return nil, err
	}
	spec, err := cfg.Defaults.OutputSpec()
	if err != nil {
		return nil, fmt.Errorf("invalid defaults: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		ctx:       ctx,
		cancel:    cancel,
		inputDir:  cfg.Watch.InputDir,
		outputDir: cfg.Watch.OutputDir,
		debounce:  time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		spec:      spec,
		proc:      proc,
		watcher:   fsWatcher,
		results:   make(chan Result, 100),
		timers:    make(map[string]*time.Timer),
		gens:      make(map[string]*pipeline.Generation),
	}, nil
}

// Start begins monitoring the input directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.inputDir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.inputDir, err)
	}
	log.Printf("Watching folder: %s -> %s", w.inputDir, w.outputDir)

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Results returns processed-file notifications. Results are dropped when the
// channel is full.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// Stop stops the watcher. Pending debounced events are discarded and runs
// already in flight are canceled; Stop returns once they have finished.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsImage(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// schedule restarts the settle timer for path. Each burst of writes yields a
// single run once the file has been quiet for the debounce period.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	gen := w.generation(path).Next()

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		// Added under mu while not stopped, so never concurrent with Stop's Wait.
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		w.publish(w.process(w.ctx, path, gen))
	})
}

// generation returns the counter for path. Callers hold w.mu.
func (w *Watcher) generation(path string) *pipeline.Generation {
	g, ok := w.gens[path]
	if !ok {
		g = &pipeline.Generation{}
		w.gens[path] = g
	}
	return g
}

func (w *Watcher) publish(res Result) {
	switch {
	case res.Err != nil:
		log.Printf("Failed to process %s: %v", res.Source, res.Err)
	case res.Stale:
		log.Printf("Discarded stale result for %s", res.Source)
	default:
		log.Printf("Prepared %s -> %s (%d bytes)", res.Source, res.Output, res.SizeBytes)
	}

	select {
	case w.results <- res:
	default:
	}
}

// ProcessFile prepares path immediately, bypassing the debounce, and writes
// the output file.
func (w *Watcher) ProcessFile(ctx context.Context, path string) Result {
	w.mu.Lock()
	gen := w.generation(path).Next()
	w.mu.Unlock()
	return w.process(ctx, path, gen)
}

// ProcessExisting prepares every image already present in the input
// directory. The watch command runs it once before Start.
func (w *Watcher) ProcessExisting(ctx context.Context) ([]Result, error) {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input folder: %w", err)
	}

	var results []Result
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := w.ProcessFile(ctx, filepath.Join(w.inputDir, e.Name()))
		w.publish(res)
		results = append(results, res)
	}
	return results, nil
}

func (w *Watcher) process(ctx context.Context, path string, gen uint64) Result {
	res := Result{Source: path, Output: OutputPath(w.outputDir, path)}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read image: %w", err)
		return res
	}

	out, err := w.proc.Process(ctx, data, w.spec, nil, nil)
	if err != nil {
		res.Err = err
		return res
	}

	w.mu.Lock()
	current := w.generation(path).IsCurrent(gen)
	w.mu.Unlock()
	if !current {
		res.Stale = true
		return res
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		res.Err = fmt.Errorf("failed to create output folder: %w", err)
		return res
	}
	if err := writeAtomic(res.Output, out.Bytes); err != nil {
		res.Err = err
		return res
	}
	res.SizeBytes = out.SizeBytes
	res.InBounds = out.InBounds
	return res
}

// IsImage reports whether path has a supported image extension and is not a
// hidden or temporary file.
func IsImage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return imageExtensions[strings.ToLower(filepath.Ext(base))]
}

// OutputPath maps a source file to <outputDir>/<name>.jpg.
func OutputPath(outputDir, source string) string {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+".jpg")
}

// writeAtomic writes data beside path and renames it into place so readers
// never see a partial JPEG.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".formphoto-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move output file: %w", err)
	}
	return nil
}
