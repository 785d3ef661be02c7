// Package watcher represents a cache of the last published values of an entity
// Can fire events if a watched value changes
package watcher

import (
	"context"
	"errors"
	"sync"
)

// Config contains the configuration parameters for a new Watcher instance
type Config struct {
	Update func(ctx context.Context) error // refreshes the watched entity
}

// Watcher represents a cache of values read from an entity
type Watcher struct {
	Config
	keys      []string                    // registration order, also the callback order
	readers   map[string]func() string    // how to read each value from the entity
	state     map[string]string           // current view of the values
	callbacks map[string]func(key string) // set of callbacks
	lock      *sync.RWMutex
}

var ErrUnknownKey = errors.New("Unknown key")
var ErrUninitialized = errors.New("State uninitialized. Call Poll() first.")

// New returns a new Watcher instance
func New(config *Config) *Watcher {
	return &Watcher{
		Config:    *config,
		readers:   make(map[string]func() string),
		callbacks: make(map[string]func(key string)),
		lock:      &sync.RWMutex{},
	}
}

// RegisterValue registers a value and the callback fired when it changes
func (w *Watcher) RegisterValue(key string, read func() string, callback func(key string)) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if _, ok := w.readers[key]; !ok {
		w.keys = append(w.keys, key)
	}
	w.readers[key] = read
	w.callbacks[key] = callback
}

// Poll refreshes the entity and then checks for changed values
func (w *Watcher) Poll(ctx context.Context) error {
	if w.Update != nil {
		if err := w.Update(ctx); err != nil {
			return err
		}
	}
	w.Check()
	return nil
}

// Check reads all values again, in registration order, without refreshing the entity and fires the callbacks of those that changed
func (w *Watcher) Check() {
	w.lock.Lock()
	first := w.state == nil
	if first {
		w.state = make(map[string]string, len(w.readers))
	}
	var changed []string
	for _, key := range w.keys {
		value := w.readers[key]()
		old, seen := w.state[key]
		w.state[key] = value
		if first || !seen || old != value {
			changed = append(changed, key)
		}
	}
	w.lock.Unlock()
	w.fire(changed)
}

// ReadValue reads one value from the cache
func (w *Watcher) ReadValue(key string) (string, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	if _, ok := w.readers[key]; !ok {
		return "", ErrUnknownKey
	}
	if w.state == nil {
		return "", ErrUninitialized
	}
	return w.state[key], nil
}

// TriggerCallbacks calls all callbacks
func (w *Watcher) TriggerCallbacks() {
	w.lock.RLock()
	keys := append([]string(nil), w.keys...)
	w.lock.RUnlock()
	w.fire(keys)
}

func (w *Watcher) fire(keys []string) {
	for _, key := range keys {
		w.lock.RLock()
		callback := w.callbacks[key]
		w.lock.RUnlock()
		if callback != nil {
			callback(key)
		}
	}
}
