// Package tag groups personas under a label.
package tag

import (
	"encoding/json"
	"slices"
	"strings"

	"tableflip.dev/pismo/pkg/container"
)

// Tag is a named set of persona identities.
type Tag struct {
	Label   string               `json:"label"`
	Persona []container.Identity `json:"persona"`
}

// Container stores tags keyed by label.
type Container = container.Container[Tag]

// New returns an empty tag with the given label.
func New(label string) Tag {
	return Tag{Label: strings.TrimSpace(label), Persona: []container.Identity{}}
}

// Identity is the tag label.
func (t Tag) Identity() container.Identity {
	return t.Label
}

// Has reports whether the persona id is a member.
func (t Tag) Has(id container.Identity) bool {
	_, found := slices.BinarySearch(t.Persona, id)
	return found
}

// SetPersona replaces the members. Duplicates are dropped and the set is kept
// sorted.
func (t *Tag) SetPersona(ids []container.Identity) {
	set := slices.Clone(ids)
	slices.Sort(set)
	t.Persona = slices.Compact(set)
	if t.Persona == nil {
		t.Persona = []container.Identity{}
	}
}

// Toggle adds the id when absent and removes it when present.
func (t *Tag) Toggle(id container.Identity) {
	if t.Has(id) {
		t.Drop(id)
		return
	}
	t.SetPersona(append(slices.Clone(t.Persona), id))
}

// Drop removes id from the members. It reports whether anything changed.
func (t *Tag) Drop(id container.Identity) bool {
	i, found := slices.BinarySearch(t.Persona, id)
	if !found {
		return false
	}
	t.Persona = slices.Delete(slices.Clone(t.Persona), i, i+1)
	return true
}

// Rename replaces member from with to. It reports whether anything changed.
func (t *Tag) Rename(from, to container.Identity) bool {
	if from == to || !t.Drop(from) {
		return false
	}
	t.SetPersona(append(t.Persona, to))
	return true
}

// UnmarshalJSON restores a tag and normalizes its member set.
func (t *Tag) UnmarshalJSON(data []byte) error {
	type plain Tag
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Tag(p)
	t.SetPersona(t.Persona)
	return nil
}
