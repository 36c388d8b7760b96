// Package container holds records keyed by the identity each record computes
// from its own fields, and persists them as a single JSON array.
package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
)

// Identity is the key a record derives from its current field values.
type Identity = string

// Record is anything that can report its identity.
type Record interface {
	Identity() Identity
}

var (
	// ErrNotFound is returned when no entry exists for an identity.
	ErrNotFound = errors.New("container: identity not found")

	// ErrDecode marks JSON that is not an array of the record schema.
	ErrDecode = errors.New("container: malformed json")
)

// Container maps identities to records. Records are held by value: callers
// receive copies and commit changes back with Upsert or UpdateIdentity.
//
// Container is not safe for concurrent use.
type Container[R Record] struct {
	records map[Identity]R
}

// New returns an empty container.
func New[R Record]() *Container[R] {
	return &Container[R]{records: make(map[Identity]R)}
}

// Size reports the number of entries.
func (c *Container[R]) Size() int {
	return len(c.records)
}

// Get returns the record stored under id.
func (c *Container[R]) Get(id Identity) (R, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Upsert stores r under its current identity, replacing any previous entry.
func (c *Container[R]) Upsert(r R) {
	c.UpdateIdentity(r.Identity(), r)
}

// UpdateIdentity commits r after an edit that started from key. When the
// edit changed r's identity the entry under key is dropped first; an existing
// record under the new identity is overwritten.
func (c *Container[R]) UpdateIdentity(key Identity, r R) {
	id := r.Identity()
	if id != key {
		delete(c.records, key)
	}
	c.ensure()
	c.records[id] = r
}

// RemoveIdentity deletes the entry stored under id.
func (c *Container[R]) RemoveIdentity(id Identity) (R, error) {
	r, ok := c.records[id]
	if !ok {
		var zero R
		return zero, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(c.records, id)
	return r, nil
}

// Remove deletes the entry under r's current identity.
func (c *Container[R]) Remove(r R) (R, error) {
	return c.RemoveIdentity(r.Identity())
}

// Identities yields the keys in sorted order as they were when Identities
// was called. The sequence can be ranged over more than once.
func (c *Container[R]) Identities() iter.Seq[Identity] {
	keys := c.sortedKeys()
	return func(yield func(Identity) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Records yields the records in identity order, snapshotted at call time.
func (c *Container[R]) Records() iter.Seq[R] {
	values := c.sortedValues()
	return func(yield func(R) bool) {
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}

// MarshalJSON encodes the records as an array in identity order. Keys are not
// written; they are recomputed on load.
func (c *Container[R]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.sortedValues())
}

// UnmarshalJSON replaces the contents with the records in data.
func (c *Container[R]) UnmarshalJSON(data []byte) error {
	var list []R
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	c.records = make(map[Identity]R, len(list))
	for _, r := range list {
		c.records[r.Identity()] = r
	}
	return nil
}

// FromJSON builds a container from a JSON array of records.
func FromJSON[R Record](data []byte) (*Container[R], error) {
	c := New[R]()
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Finalize writes the container to path. The file is replaced atomically.
func (c *Container[R]) Finalize(path string) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("container: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("container: ensure dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("container: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("container: write: %w", err)
	}
	return nil
}

// Restore reads a container previously written by Finalize. I/O failures
// keep the underlying *fs.PathError; malformed content matches ErrDecode.
func Restore[R Record](path string) (*Container[R], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("container: read: %w", err)
	}
	c, err := FromJSON[R](data)
	if err != nil {
		return nil, fmt.Errorf("container: %s: %w", path, err)
	}
	return c, nil
}

func (c *Container[R]) ensure() {
	if c.records == nil {
		c.records = make(map[Identity]R)
	}
}

func (c *Container[R]) sortedKeys() []Identity {
	keys := make([]Identity, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Container[R]) sortedValues() []R {
	keys := c.sortedKeys()
	values := make([]R, 0, len(keys))
	for _, k := range keys {
		values = append(values, c.records[k])
	}
	return values
}
