package component

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type profile struct {
	Base

	FullName string   `json:"name"`
	Age      int      `json:"age"`
	Tags     []string `json:"tags"`
	Display  string
}

func newProfile(id string) *profile {
	p := &profile{FullName: "Ada"}
	p.Bind(p, id, "profile")
	return p
}

func (p *profile) Greet(greeting string) string {
	return greeting + ", " + p.FullName
}

func (p *profile) Grow(years int) int {
	p.Age += years
	return p.Age
}

func (p *profile) Fail() error {
	return errors.New("boom")
}

func (p *profile) Sum(nums ...int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

func TestFieldSetAccess(t *testing.T) {
	p := newProfile("p-1")

	t.Run("GetByTag", func(t *testing.T) {
		got, ok := p.Field("name")
		if !ok || got != "Ada" {
			t.Fatalf("Field(name) = %v, %v", got, ok)
		}
	})

	t.Run("GetByLowerCamel", func(t *testing.T) {
		if _, ok := p.Field("display"); !ok {
			t.Fatal("Field(display) not found")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, ok := p.Field("nope"); ok {
			t.Fatal("Field(nope) found")
		}
	})

	t.Run("SetConvertsNumbers", func(t *testing.T) {
		if !p.SetField("age", float64(41)) {
			t.Fatal("SetField(age) failed")
		}
		if p.Age != 41 {
			t.Errorf("Age = %d, want 41", p.Age)
		}
	})

	t.Run("SetStructured", func(t *testing.T) {
		if !p.SetField("tags", []any{"a", "b"}) {
			t.Fatal("SetField(tags) failed")
		}
		if !reflect.DeepEqual(p.Tags, []string{"a", "b"}) {
			t.Errorf("Tags = %v", p.Tags)
		}
	})

	t.Run("SetNilZeroes", func(t *testing.T) {
		if !p.SetField("name", nil) {
			t.Fatal("SetField(name, nil) failed")
		}
		if p.FullName != "" {
			t.Errorf("Name = %q, want empty", p.FullName)
		}
	})
}

func TestCallMethod(t *testing.T) {
	p := newProfile("p-1")

	t.Run("WithArgs", func(t *testing.T) {
		got, found, err := p.CallMethod("greet", []any{"Hello"})
		if err != nil || !found {
			t.Fatalf("CallMethod: found=%v err=%v", found, err)
		}
		if got != "Hello, Ada" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("NumericConversion", func(t *testing.T) {
		got, _, err := p.CallMethod("grow", []any{float64(2)})
		if err != nil {
			t.Fatal(err)
		}
		if got != 2 {
			t.Errorf("got %v, want 2", got)
		}
	})

	t.Run("Variadic", func(t *testing.T) {
		got, _, err := p.CallMethod("sum", []any{float64(1), float64(2), float64(3)})
		if err != nil {
			t.Fatal(err)
		}
		if got != 6 {
			t.Errorf("got %v, want 6", got)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, found, err := p.CallMethod("vanish", nil)
		if found || err != nil {
			t.Fatalf("found=%v err=%v, want missing and no error", found, err)
		}
	})

	t.Run("ErrorReturn", func(t *testing.T) {
		_, found, err := p.CallMethod("fail", nil)
		if !found || err == nil {
			t.Fatalf("found=%v err=%v, want found with error", found, err)
		}
	})

	t.Run("WrongArity", func(t *testing.T) {
		_, _, err := p.CallMethod("greet", nil)
		if err == nil {
			t.Fatal("want arity error")
		}
	})
}

func TestFrontendState(t *testing.T) {
	p := newProfile("p-1")
	p.Age = 30

	state, err := p.FrontendState()
	if err != nil {
		t.Fatal(err)
	}
	if state["name"] != "Ada" || state["age"] != float64(30) {
		t.Errorf("state = %#v", state)
	}
	if _, ok := state["errors"]; ok {
		t.Error("internal state leaked into snapshot")
	}
}

func TestErrors(t *testing.T) {
	p := newProfile("p-1")
	p.AddError("name", "required")
	p.AddError("name", "too short")

	if got := p.Errors()["name"]; len(got) != 2 {
		t.Fatalf("errors = %v", got)
	}
	p.ClearErrors()
	if len(p.Errors()) != 0 {
		t.Error("errors survive ClearErrors")
	}
}

func TestSetPropertyRunsHookPair(t *testing.T) {
	p := newProfile("p-1")

	var calls []string
	p.PathHooks().On("name", HookPair{
		Updating: func(value any) { calls = append(calls, "updating") },
		Updated:  func(value any) { calls = append(calls, "updated") },
	})

	p.SetProperty("name", "Grace")
	if p.FullName != "Grace" {
		t.Errorf("Name = %q", p.FullName)
	}
	if !reflect.DeepEqual(calls, []string{"updating", "updated"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("profile", func(id string) Instance { return newProfile(id) })
	ctx := context.Background()

	t.Run("UnknownName", func(t *testing.T) {
		if _, err := reg.Create(ctx, "x", "ghost", false); err == nil {
			t.Fatal("want error for unknown component")
		}
	})

	t.Run("FreshConstruct", func(t *testing.T) {
		inst, err := reg.Create(ctx, "p-1", "profile", false)
		if err != nil {
			t.Fatal(err)
		}
		if inst.(*profile).FullName != "Ada" {
			t.Error("constructor defaults not applied")
		}
	})

	t.Run("CachedFetchReplaysCommit", func(t *testing.T) {
		inst, _ := reg.Create(ctx, "p-2", "profile", false)
		p := inst.(*profile)
		p.FullName = "Grace"
		p.Age = 36
		if err := reg.Commit(inst); err != nil {
			t.Fatal(err)
		}

		// In-memory mutation after the commit must not survive a
		// cached fetch.
		p.FullName = "transient"

		again, err := reg.Create(ctx, "p-2", "profile", true)
		if err != nil {
			t.Fatal(err)
		}
		got := again.(*profile)
		if got.FullName != "Grace" || got.Age != 36 {
			t.Errorf("replayed state = %q, %d", got.FullName, got.Age)
		}
	})

	t.Run("NonCachedIgnoresCommit", func(t *testing.T) {
		inst, _ := reg.Create(ctx, "p-2", "profile", false)
		if inst.(*profile).FullName != "Ada" {
			t.Error("fresh construct saw committed state")
		}
	})
}
