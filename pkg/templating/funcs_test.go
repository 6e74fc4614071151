package templating

import (
	"testing"
	"time"

	"github.com/CTAG07/keepfn/pkg/functions"
	"github.com/google/go-cmp/cmp"
)

// TestFuncMap checks which library functions are exposed directly.
func TestFuncMap(t *testing.T) {
	tm := setupTestManager(t)

	for _, name := range []string{"keep", "kw", "uppercase", "join", "get_firing_time", "json_dumps"} {
		if _, ok := tm.funcMap[name]; !ok {
			t.Errorf("expected %q in the function map", name)
		}
	}
	for name := range templateBuiltins {
		if _, ok := tm.funcMap[name]; ok {
			t.Errorf("builtin %q must not be overridden", name)
		}
	}
	for _, name := range tm.lib.Names() {
		if _, shadowed := templateBuiltins[name]; shadowed {
			continue
		}
		if _, ok := tm.funcMap[name]; !ok {
			t.Errorf("library function %q missing from the function map", name)
		}
	}
}

func TestToTemplate(t *testing.T) {
	now := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   functions.Value
		want any
	}{
		{"null", functions.Null, ""},
		{"string", functions.String("a"), "a"},
		{"int", functions.Int(3), int64(3)},
		{"bool", functions.Bool(true), true},
		{"list", functions.List(functions.String("a"), functions.Int(1)), []any{"a", int64(1)}},
		{"map", functions.Mapping(functions.MapOf("k", "v")), map[string]any{"k": "v"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, toTemplate(tc.in)); diff != "" {
				t.Errorf("toTemplate mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("time stays a value", func(t *testing.T) {
		got, ok := toTemplate(functions.Time(now)).(functions.Value)
		if !ok {
			t.Fatalf("expected a functions.Value, got %T", toTemplate(functions.Time(now)))
		}
		if !got.Time().Equal(now) {
			t.Errorf("time changed on the way out: %v", got.Time())
		}
	})
}

func TestTemplateData(t *testing.T) {
	v := functions.Mapping(functions.MapOf("alert", functions.MapOf("name", "x")))
	want := map[string]any{"alert": map[string]any{"name": "x"}}
	if diff := cmp.Diff(want, templateData(v)); diff != "" {
		t.Errorf("Value data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, templateData(&v)); diff != "" {
		t.Errorf("*Value data mismatch (-want +got):\n%s", diff)
	}
	var nilValue *functions.Value
	if templateData(nilValue) != nil {
		t.Error("nil *Value should become nil data")
	}
	plain := map[string]any{"a": 1}
	if diff := cmp.Diff(plain, templateData(plain)); diff != "" {
		t.Errorf("plain data should pass through (-want +got):\n%s", diff)
	}
}
