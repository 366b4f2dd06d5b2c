package propath

import (
	"reflect"
	"testing"

	"github.com/pulse-ui/pulse/pkg/component"
)

// Author is a nested field object.
type Author struct {
	component.FieldSet

	Name string `json:"name"`
}

func newAuthor(name string) *Author {
	a := &Author{Name: name}
	a.BindFields(a)
	return a
}

// BookView is the component under test.
type BookView struct {
	component.Base

	Title  string         `json:"title"`
	Pages  int            `json:"pages"`
	Open   bool           `json:"open"`
	Author *Author        `json:"author"`
	Meta   map[string]any `json:"meta"`

	updates []string
}

func newBookView() *BookView {
	v := &BookView{
		Author: newAuthor("Neil"),
		Meta:   map[string]any{"genre": "fantasy"},
	}
	v.Bind(v, "book-1", "book")
	return v
}

func (v *BookView) Updating(path string, value any) {
	v.updates = append(v.updates, "updating:"+path)
}

func (v *BookView) Updated(path string, value any) {
	v.updates = append(v.updates, "updated:"+path)
}

func TestGet(t *testing.T) {
	v := newBookView()
	v.Title = "Coraline"

	tests := []struct {
		name string
		path string
		want any
		ok   bool
	}{
		{"TopLevel", "title", "Coraline", true},
		{"Nested", "author.name", "Neil", true},
		{"MapKey", "meta.genre", "fantasy", true},
		{"MissingTop", "publisher", nil, false},
		{"MissingNested", "author.age", nil, false},
		{"MissingIntermediate", "editor.name", nil, false},
		{"ThroughScalar", "title.length", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(v, tt.path)
			if ok != tt.ok {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	v := newBookView()

	paths := map[string]any{
		"title":       "Stardust",
		"pages":       float64(248),
		"author.name": "Neil Gaiman",
		"meta.genre":  "novel",
	}
	for path, value := range paths {
		Set(v, path, value, nil)
		got, ok := Get(v, path)
		if !ok {
			t.Fatalf("Get(%q) absent after Set", path)
		}
		// Numeric writes coerce into the field's type.
		if want, isFloat := value.(float64); isFloat {
			if asFloat(got) != want {
				t.Errorf("Get(%q) = %v, want %v", path, got, want)
			}
			continue
		}
		if !reflect.DeepEqual(got, value) {
			t.Errorf("Get(%q) = %v, want %v", path, got, value)
		}
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return -1
}

func TestSetMirrorsShadow(t *testing.T) {
	v := newBookView()
	shadow := map[string]any{}

	Set(v, "author.name", "Terry", shadow)

	nested, ok := shadow["author"].(map[string]any)
	if !ok {
		t.Fatalf("shadow missing author container: %#v", shadow)
	}
	if nested["name"] != "Terry" {
		t.Errorf("shadow author.name = %v, want Terry", nested["name"])
	}
}

func TestSetGenericHooksAlwaysRun(t *testing.T) {
	v := newBookView()

	Set(v, "author.name", "Terry", nil)
	want := []string{"updating:author.name", "updated:author.name"}
	if !reflect.DeepEqual(v.updates, want) {
		t.Errorf("hook order = %v, want %v", v.updates, want)
	}

	// Hooks run even when the path cannot resolve.
	v.updates = nil
	Set(v, "editor.name", "x", nil)
	if !reflect.DeepEqual(v.updates, []string{"updating:editor.name", "updated:editor.name"}) {
		t.Errorf("hooks skipped on unresolvable path: %v", v.updates)
	}
}

func TestSetMissingIntermediateIsNoOp(t *testing.T) {
	v := newBookView()
	shadow := map[string]any{}

	Set(v, "editor.name", "x", shadow)

	if len(shadow) != 0 {
		t.Errorf("shadow written for unresolvable path: %#v", shadow)
	}
	if _, ok := Get(v, "editor.name"); ok {
		t.Error("unresolvable path resolvable after Set")
	}
}

func TestSetRegisteredPathPair(t *testing.T) {
	v := newBookView()

	var calls []string
	v.PathHooks().On("author.name", component.HookPair{
		Updating: func(value any) { calls = append(calls, "before") },
		Updated:  func(value any) { calls = append(calls, "after") },
	})

	Set(v, "author.name", "Terry", nil)
	if !reflect.DeepEqual(calls, []string{"before", "after"}) {
		t.Errorf("path pair calls = %v", calls)
	}

	// Terminal writes on the component itself go through SetProperty,
	// which runs the pair registered for the bare field name.
	calls = nil
	v.PathHooks().On("title", component.HookPair{
		Updating: func(value any) { calls = append(calls, "before") },
	})
	Set(v, "title", "Stardust", nil)
	if !reflect.DeepEqual(calls, []string{"before"}) {
		t.Errorf("property pair calls = %v", calls)
	}
}

func TestApplyInitial(t *testing.T) {
	t.Run("NestedFanOut", func(t *testing.T) {
		v := newBookView()
		ApplyInitial(v, map[string]any{
			"title":  "Coraline",
			"pages":  float64(176),
			"author": map[string]any{"name": "Neil Gaiman"},
		})

		if v.Title != "Coraline" || v.Pages != 176 {
			t.Errorf("top-level fields = %q, %d", v.Title, v.Pages)
		}
		if v.Author.Name != "Neil Gaiman" {
			t.Errorf("nested author.name = %q", v.Author.Name)
		}
	})

	t.Run("UnknownKeysIgnored", func(t *testing.T) {
		v := newBookView()
		ApplyInitial(v, map[string]any{"publisher": "nope"})
		if _, ok := Get(v, "publisher"); ok {
			t.Error("unknown key materialized a field")
		}
	})
}
