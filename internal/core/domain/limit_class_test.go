package domain

import (
	"testing"
	"time"
)

func TestClassRegistry_GetFallsBackToDefault(t *testing.T) {
	r := DefaultClassRegistry()

	cls := r.Get("definitely-not-registered")
	if cls.Name != DefaultClassName {
		t.Fatalf("expected default class, got %q", cls.Name)
	}
	if cls.MaxRequests != 100 || cls.Window != time.Minute {
		t.Fatalf("unexpected default class config: %+v", cls)
	}
}

func TestClassRegistry_BuiltinTable(t *testing.T) {
	r := DefaultClassRegistry()

	cases := []struct {
		name   string
		window time.Duration
		max    int
	}{
		{"default", time.Minute, 100},
		{"auth", 5 * time.Minute, 10},
		{"api", time.Minute, 60},
		{"heavy", time.Minute, 10},
		{"realtime", time.Second, 20},
	}

	for _, tc := range cases {
		cls := r.Get(tc.name)
		if cls.Name != tc.name || cls.Window != tc.window || cls.MaxRequests != tc.max {
			t.Fatalf("class %s: expected {%v %d}, got %+v", tc.name, tc.window, tc.max, cls)
		}
	}

	if got := len(r.All()); got != len(cases) {
		t.Fatalf("expected %d classes, got %d", len(cases), got)
	}
}

func TestNewClassRegistry_InvalidClassesIgnoredAndDefaultEnsured(t *testing.T) {
	r := NewClassRegistry(
		LimitClass{Name: "", Window: time.Minute, MaxRequests: 5},
		LimitClass{Name: "zero-window", Window: 0, MaxRequests: 5},
		LimitClass{Name: "zero-max", Window: time.Minute, MaxRequests: 0},
		LimitClass{Name: "custom", Window: 2 * time.Minute, MaxRequests: 30},
	)

	if got := r.Get("custom"); got.MaxRequests != 30 {
		t.Fatalf("expected custom class to register, got %+v", got)
	}
	if got := r.Get("zero-window"); got.Name != DefaultClassName {
		t.Fatalf("expected invalid class to fall back to default, got %+v", got)
	}
	if got := r.Get(DefaultClassName); got.MaxRequests != 100 {
		t.Fatalf("expected builtin default to be present, got %+v", got)
	}
}

func TestNewClassRegistry_OverridesDefault(t *testing.T) {
	r := NewClassRegistry(LimitClass{Name: DefaultClassName, Window: 30 * time.Second, MaxRequests: 7})

	cls := r.Get("anything")
	if cls.Window != 30*time.Second || cls.MaxRequests != 7 {
		t.Fatalf("expected overridden default, got %+v", cls)
	}
}
