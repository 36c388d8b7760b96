package tag

import (
	"encoding/json"
	"slices"
	"testing"

	"tableflip.dev/pismo/pkg/container"
)

func TestSetPersonaIsASet(t *testing.T) {
	tg := New(" staff ")
	if tg.Identity() != "staff" {
		t.Fatalf("label not trimmed: %q", tg.Identity())
	}
	tg.SetPersona([]string{"B", "A", "B"})
	if !slices.Equal(tg.Persona, []string{"A", "B"}) {
		t.Fatalf("unexpected members %v", tg.Persona)
	}
	if !tg.Has("A") || tg.Has("C") {
		t.Fatalf("membership check failed: %v", tg.Persona)
	}
}

func TestToggleDropRename(t *testing.T) {
	tg := New("x")
	tg.Toggle("A")
	tg.Toggle("B")
	tg.Toggle("A")
	if !slices.Equal(tg.Persona, []string{"B"}) {
		t.Fatalf("toggle: %v", tg.Persona)
	}
	if !tg.Rename("B", "Z") || !slices.Equal(tg.Persona, []string{"Z"}) {
		t.Fatalf("rename: %v", tg.Persona)
	}
	if tg.Rename("missing", "Q") {
		t.Fatalf("rename of missing member reported a change")
	}
	if !tg.Drop("Z") || len(tg.Persona) != 0 {
		t.Fatalf("drop: %v", tg.Persona)
	}
	if tg.Drop("Z") {
		t.Fatalf("second drop reported a change")
	}
}

func TestDropDoesNotAliasCopies(t *testing.T) {
	tg := New("x")
	tg.SetPersona([]string{"A", "B", "C"})
	cp := tg
	cp.Drop("A")
	if !slices.Equal(tg.Persona, []string{"A", "B", "C"}) {
		t.Fatalf("original mutated through copy: %v", tg.Persona)
	}
}

func TestUnmarshalNormalizes(t *testing.T) {
	var c container.Container[Tag]
	if err := json.Unmarshal([]byte(`[{"label":"team","persona":["Z","A","Z"]}]`), &c); err != nil {
		t.Fatal(err)
	}
	tg, ok := c.Get("team")
	if !ok {
		t.Fatalf("tag not restored")
	}
	if !slices.Equal(tg.Persona, []string{"A", "Z"}) {
		t.Fatalf("members not normalized: %v", tg.Persona)
	}
	if !tg.Has("Z") {
		t.Fatalf("lookup after restore failed")
	}
}
