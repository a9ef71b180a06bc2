package store

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

	"github.com/fsnotify/fsnotify"

	"luxview/internal/jsonutil"
)

// fileDoc is the on-disk layout of a File store.
type fileDoc struct {
	Version int64                  `json:"version"`
	Writer  string                 `json:"writer"`
	Props   map[string]interface{} `json:"props"`
}

// File is a Store persisted as a single JSON document. Writes are atomic
// (temp file + rename); writes by other processes are picked up through
// fsnotify and delivered to subscribers after a short debounce.
type File struct {
	bag

	path string
	opts options

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	// Keys folded in by Commit wait here for the watcher goroutine, so
	// subscribers never run on the committer's stack.
	foldMu sync.Mutex
	folded ChangeSet
	kick   chan struct{}
}

// Ensure File implements Store.
var _ Store = (*File)(nil)

// OpenFile opens (or lazily creates) the document at path and starts watching it.
func OpenFile(path string, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir for %q: %w", abs, err)
	}

	f := &File{
		path: abs,
		opts: applyOptions(opts),
		done: make(chan struct{}),
		kick: make(chan struct{}, 1),
	}
	f.init()

	doc, err := readFileDoc(abs)
	if err != nil {
		return nil, err
	}
	f.merge(doc.Props, true)
	f.version = doc.Version

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the inode, which drops a
	// watch placed on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("store: watch %q: %w", filepath.Dir(abs), err)
	}
	f.watcher = w

	f.wg.Add(1)
	go f.watch()
	return f, nil
}

// Path returns the absolute path of the backing document.
func (f *File) Path() string { return f.path }

// Get implements Store.
func (f *File) Get(key string) (interface{}, bool) { return f.get(key) }

// Set implements Store.
func (f *File) Set(key string, value interface{}) { f.set(key, value) }

// OnChange implements Store.
func (f *File) OnChange(fn func(ChangeSet)) func() { return f.subscribe(fn) }

// Commit overlays the pending sets on the current on-disk document and
// rewrites it. Keys another writer changed since the last load are
// reported to subscribers from the watcher goroutine once the write succeeds.
func (f *File) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	values, err := f.takePending()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	disk, err := readFileDoc(f.path)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	external := make(ChangeSet)
	if disk.Writer != f.opts.writerID {
		external = f.merge(disk.Props, true)
	}
	for k := range values {
		delete(external, k)
	}
	f.merge(values, false)

	version := f.version + 1
	if disk.Version >= version {
		version = disk.Version + 1
	}
	doc := fileDoc{Version: version, Writer: f.opts.writerID, Props: f.props}
	if err := writeFileDoc(f.path, doc); err != nil {
		f.mu.Unlock()
		return err
	}
	f.version = version
	f.mu.Unlock()

	f.queueFolded(external)
	return nil
}

// queueFolded hands keys picked up by Commit to the watcher goroutine.
func (f *File) queueFolded(cs ChangeSet) {
	if len(cs) == 0 {
		return
	}
	f.foldMu.Lock()
	if f.folded == nil {
		f.folded = make(ChangeSet, len(cs))
	}
	for k := range cs {
		f.folded[k] = struct{}{}
	}
	f.foldMu.Unlock()
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

func (f *File) flushFolded() {
	f.foldMu.Lock()
	cs := f.folded
	f.folded = nil
	f.foldMu.Unlock()
	f.notify(cs)
}

// Close stops the watcher.
func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	return err
}

func (f *File) watch() {
	defer f.wg.Done()

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	for {
		select {
		case <-f.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(f.opts.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(f.opts.debounce)
			}
			settle = timer.C
		case <-settle:
			settle = nil
			f.reload()
		case <-f.kick:
			f.flushFolded()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.opts.logger.Warn("store.File: watcher error", "path", f.path, "err", err)
		}
	}
}

// reload re-reads the document after an external write.
func (f *File) reload() {
	doc, err := readFileDoc(f.path)
	if err != nil {
		f.opts.logger.Warn("store.File: reload failed", "path", f.path, "err", err)
		return
	}
	f.mu.Lock()
	if f.closed || doc.Writer == f.opts.writerID {
		f.mu.Unlock()
		return
	}
	changed := f.merge(doc.Props, true)
	if doc.Version > f.version {
		f.version = doc.Version
	}
	f.mu.Unlock()

	if len(changed) > 0 {
		f.opts.logger.Debug("store.File: external change", "path", f.path, "keys", changed.Keys())
	}
	f.notify(changed)
}

// readFileDoc loads the document; a missing or empty file is an empty document.
func readFileDoc(path string) (fileDoc, error) {
	doc := fileDoc{Props: make(map[string]interface{})}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(b) == 0) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("store: read %q: %w", path, err)
	}
	if err := jsonutil.UnmarshalWithContext(b, &doc, "store: decode "+path); err != nil {
		return doc, err
	}
	if doc.Props == nil {
		doc.Props = make(map[string]interface{})
	}
	return doc, nil
}

func writeFileDoc(path string, doc fileDoc) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("store: create temp for %q: %w", path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: close %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("store: rename into %q: %w", path, err)
	}
	return nil
}
