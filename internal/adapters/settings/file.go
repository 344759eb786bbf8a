package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileStore keeps settings in a flat YAML document. Writes replace the file
// atomically. Watch picks up edits made by other processes.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string
	hub    hub
}

// NewFileStore loads path, treating a missing file as empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	f := &FileStore{path: path}
	values, err := f.read()
	if err != nil {
		return nil, err
	}
	f.values = values
	return f, nil
}

func (f *FileStore) read() (map[string]string, error) {
	payload, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return values, nil
}

func (f *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	payload, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Get implements Store.
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

// Set implements Store.
func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	next := make(map[string]string, len(f.values)+1)
	for k, v := range f.values {
		next[k] = v
	}
	next[key] = value
	if err := f.write(next); err != nil {
		f.mu.Unlock()
		return err
	}
	f.values = next
	f.mu.Unlock()

	f.hub.notify(Change{Key: key, Value: value})
	return nil
}

// Subscribe implements Store.
func (f *FileStore) Subscribe(fn func(Change)) func() {
	return f.hub.subscribe(fn)
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }

// Watch reloads the file whenever it changes on disk and notifies
// subscribers of keys whose value differs. It blocks until ctx is done.
// onErr, if non-nil, receives reload and watcher errors.
func (f *FileStore) Watch(ctx context.Context, onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	// The directory is watched because atomic replaces swap the inode.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}
	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := f.reload(); err != nil {
				report(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(err)
		}
	}
}

// reload reads under the write lock so a concurrent Set cannot be mistaken
// for an external edit.
func (f *FileStore) reload() error {
	f.mu.Lock()
	values, err := f.read()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	var changes []Change
	for k, v := range values {
		if old, ok := f.values[k]; !ok || old != v {
			changes = append(changes, Change{Key: k, Value: v, External: true})
		}
	}
	f.values = values
	f.mu.Unlock()

	for _, c := range changes {
		f.hub.notify(c)
	}
	return nil
}
