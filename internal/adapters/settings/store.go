// Package settings defines the key-value settings port and its adapters.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Keys persisted by the application.
const (
	KeyHasSeenWelcome         = "hasSeenWelcome"
	KeyHasCompletedOnboarding = "hasCompletedOnboarding"
	KeyTotalXP                = "totalXP"
	KeyLastResetDate          = "lastResetDate"
)

// Change describes a value written under a key. External marks values picked
// up from storage that this process did not write through Set.
type Change struct {
	Key      string
	Value    string
	External bool
}

// Store is a durable string key-value store with change notification.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key and notifies subscribers.
	Set(ctx context.Context, key, value string) error
	// Subscribe registers fn for every change; the returned func unregisters it.
	Subscribe(fn func(Change)) (cancel func())
	// Close releases underlying resources.
	Close() error
}

// Bool reads a boolean, returning def when the key is absent.
func Bool(ctx context.Context, s Store, key string, def bool) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, err := parseBool(key, v)
	if err != nil {
		return def, err
	}
	return b, nil
}

// Int reads an integer, returning def when the key is absent.
func Int(ctx context.Context, s Store, key string, def int) (int, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	n, err := parseInt(key, v)
	if err != nil {
		return def, err
	}
	return n, nil
}

// Time reads a timestamp stored as unix seconds; absent keys yield the epoch.
func Time(ctx context.Context, s Store, key string) (time.Time, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return time.Unix(0, 0), err
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Unix(0, 0), fmt.Errorf("%w: %s=%q", ErrMalformedValue, key, v)
	}
	return time.Unix(secs, 0), nil
}

// Bool decodes the changed value as a boolean.
func (c Change) Bool() (bool, error) { return parseBool(c.Key, c.Value) }

// Int decodes the changed value as an integer.
func (c Change) Int() (int, error) { return parseInt(c.Key, c.Value) }

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrMalformedValue, key, v)
	}
	return b, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedValue, key, v)
	}
	return n, nil
}

// SetBool writes a boolean.
func SetBool(ctx context.Context, s Store, key string, v bool) error {
	return s.Set(ctx, key, strconv.FormatBool(v))
}

// SetInt writes an integer.
func SetInt(ctx context.Context, s Store, key string, v int) error {
	return s.Set(ctx, key, strconv.Itoa(v))
}

// SetTime writes a timestamp as unix seconds.
func SetTime(ctx context.Context, s Store, key string, v time.Time) error {
	return s.Set(ctx, key, strconv.FormatInt(v.Unix(), 10))
}

// hub keeps subscribers for a store. Callbacks run outside the lock so they
// may call back into the store.
type hub struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Change)
}

func (h *hub) subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	if h.fns == nil {
		h.fns = make(map[int]func(Change))
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.fns, id)
		h.mu.Unlock()
	}
}

func (h *hub) notify(c Change) {
	h.mu.Lock()
	fns := make([]func(Change), 0, len(h.fns))
	for _, fn := range h.fns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
