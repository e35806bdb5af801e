// Package storage implements the client's durable local storage: a small
// key/value file that outlives the process, and the credential store built
// on top of it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage is a JSON file of string items. Every call goes to disk so
// that separate processes (shell, dashboard, one-shot login) see each other's
// writes immediately.
type LocalStorage struct {
	path   string
	sealer *Sealer
	mu     sync.Mutex
}

type storageFile struct {
	Items map[string]string `json:"items"`
}

// NewLocalStorage returns storage backed by path. sealer may be nil, in which
// case values are stored in clear text.
func NewLocalStorage(path string, sealer *Sealer) *LocalStorage {
	return &LocalStorage{path: path, sealer: sealer}
}

// Path returns the backing file path.
func (ls *LocalStorage) Path() string {
	return ls.path
}

// GetItem returns the value stored under key and whether it was present.
func (ls *LocalStorage) GetItem(key string) (string, bool, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := ls.load()
	if err != nil {
		return "", false, err
	}
	v, ok := f.Items[key]
	if !ok {
		return "", false, nil
	}
	if ls.sealer != nil {
		v, err = ls.sealer.Open(v)
		if err != nil {
			return "", false, fmt.Errorf("open %s: %w", key, err)
		}
	}
	return v, true, nil
}

// SetItem stores value under key.
func (ls *LocalStorage) SetItem(key, value string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := ls.load()
	if err != nil {
		return err
	}
	if ls.sealer != nil {
		value, err = ls.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
	}
	f.Items[key] = value
	return ls.save(f)
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (ls *LocalStorage) RemoveItem(key string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	f, err := ls.load()
	if err != nil {
		return err
	}
	if _, ok := f.Items[key]; !ok {
		return nil
	}
	delete(f.Items, key)
	return ls.save(f)
}

func (ls *LocalStorage) load() (*storageFile, error) {
	f := &storageFile{}
	data, err := os.ReadFile(ls.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.Items = map[string]string{}
			return f, nil
		}
		return nil, fmt.Errorf("read storage: %w", err)
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("decode storage: %w", err)
	}
	if f.Items == nil {
		f.Items = map[string]string{}
	}
	return f, nil
}

// save writes through a temp file and rename so a crash never leaves a
// truncated storage file behind.
func (ls *LocalStorage) save(f *storageFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	dir := filepath.Dir(ls.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".storage-*")
	if err != nil {
		return fmt.Errorf("create temp storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), ls.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}
	return nil
}
