// Package store persists config entries, the credentials each bridge runs with.
package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const DATA_EMAIL = "email"
const DATA_TOKEN = "token"

var ErrEntryNotFound = errors.New("config entry not found")

// Entry is one configured MELCloud account
type Entry struct {
	ID     string            `yaml:"id"`
	Domain string            `yaml:"domain"`
	Title  string            `yaml:"title"`
	Data   map[string]string `yaml:"data"`
}

// Email returns the account email of the entry, falling back to its title
// for entries created before the email was stored in data
func (e *Entry) Email() string {
	if email, ok := e.Data[DATA_EMAIL]; ok {
		return email
	}
	return e.Title
}

// File is an entry store backed by a YAML file. The file is rewritten on every change.
type File struct {
	path    string
	lock    sync.Mutex
	entries []Entry
}

// NewFile loads the entries in path. A missing file is an empty store.
func NewFile(path string) (*File, error) {
	f := &File{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.entries); err != nil {
		return nil, fmt.Errorf("parse entries %s: %w", path, err)
	}
	return f, nil
}

// Entries returns a copy of the entries of domain
func (f *File) Entries(domain string) []Entry {
	f.lock.Lock()
	defer f.lock.Unlock()
	var entries []Entry
	for _, e := range f.entries {
		if e.Domain == domain {
			entries = append(entries, copyEntry(e))
		}
	}
	return entries
}

// Add stores a new entry and returns it with its generated id
func (f *File) Add(domain, title string, data map[string]string) (Entry, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	e := Entry{
		ID:     uuid.NewString(),
		Domain: domain,
		Title:  title,
		Data:   copyData(data),
	}
	f.entries = append(f.entries, e)
	if err := f.save(); err != nil {
		f.entries = f.entries[:len(f.entries)-1]
		return Entry{}, err
	}
	return copyEntry(e), nil
}

// Update replaces the data of the entry with the given id
func (f *File) Update(id string, data map[string]string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	for i := range f.entries {
		if f.entries[i].ID != id {
			continue
		}
		old := f.entries[i].Data
		f.entries[i].Data = copyData(data)
		if err := f.save(); err != nil {
			f.entries[i].Data = old
			return err
		}
		return nil
	}
	return ErrEntryNotFound
}

// Remove deletes the entry with the given id
func (f *File) Remove(id string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	for i := range f.entries {
		if f.entries[i].ID != id {
			continue
		}
		old := f.entries
		f.entries = append(append([]Entry(nil), old[:i]...), old[i+1:]...)
		if err := f.save(); err != nil {
			f.entries = old
			return err
		}
		return nil
	}
	return ErrEntryNotFound
}

func (f *File) save() error {
	out, err := yaml.Marshal(f.entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}

func copyData(data map[string]string) map[string]string {
	c := make(map[string]string, len(data))
	for k, v := range data {
		c[k] = v
	}
	return c
}

func copyEntry(e Entry) Entry {
	e.Data = copyData(e.Data)
	return e
}
