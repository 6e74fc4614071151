package templating

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CTAG07/keepfn/pkg/functions"
	"github.com/google/go-cmp/cmp"
)

// fixedNow is a Wednesday afternoon in UTC.
var fixedNow = time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)

// setupTestManager creates a TemplateManager for a single test's scope with a
// template directory holding one message template and one partial.
func setupTestManager(tb testing.TB) *TemplateManager {
	tb.Helper()

	dir := tb.TempDir()
	writeTemplate(tb, dir, "alert.tmpl", `[{{ uppercase .alert.severity }}] {{ .alert.name }}{{ template "footer.part" . }}`)
	writeTemplate(tb, dir, "footer.part", ` ({{ keep "len" .hosts }} hosts)`)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib, err := functions.NewLibrary(logger, functions.DefaultConfig(), functions.WithClock(functions.FixedClock(fixedNow)))
	if err != nil {
		tb.Fatalf("NewLibrary failed: %v", err)
	}
	config := DefaultConfig()
	config.TemplateDir = dir
	tm, err := NewTemplateManager(logger, lib, config)
	if err != nil {
		tb.Fatalf("NewTemplateManager failed: %v", err)
	}
	return tm
}

func writeTemplate(tb testing.TB, dir, name, content string) {
	tb.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		tb.Fatalf("failed to write template %s: %v", name, err)
	}
}

func testContext() map[string]any {
	return map[string]any{
		"alert": map[string]any{
			"name":            "HighCPU",
			"severity":        "critical",
			"firingStartTime": "2024-01-03T14:00:00Z",
			"labels":          map[string]any{"team": "sre", "env": "prod"},
		},
		"hosts": []any{"web-1", "web-2"},
	}
}

func TestNewTemplateManager(t *testing.T) {
	tm := setupTestManager(t)
	if diff := cmp.Diff([]string{"alert.tmpl"}, tm.GetTemplateNames()); diff != "" {
		t.Errorf("template names mismatch (-want +got):\n%s", diff)
	}

	t.Run("RequiresLibrary", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if _, err := NewTemplateManager(logger, nil, DefaultConfig()); err == nil {
			t.Error("expected an error without a function library")
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		lib, _ := functions.NewLibrary(logger, nil)
		config := DefaultConfig()
		config.TemplateDir = filepath.Join(t.TempDir(), "absent")
		tm, err := NewTemplateManager(logger, lib, config)
		if err != nil {
			t.Fatalf("a missing directory should load an empty set, got %v", err)
		}
		if len(tm.GetTemplateNames()) != 0 {
			t.Error("expected no templates")
		}
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		lib, _ := functions.NewLibrary(logger, nil)
		config := DefaultConfig()
		config.MissingKey = "explode"
		if _, err := NewTemplateManager(logger, lib, config); err == nil {
			t.Error("expected invalid missing_key to be rejected")
		}
	})
}

func TestManager_Execute(t *testing.T) {
	tm := setupTestManager(t)

	var buf bytes.Buffer
	if err := tm.Execute(&buf, "alert.tmpl", testContext()); err != nil {
		t.Fatalf("Execute failed for valid template: %v", err)
	}
	if want := "[CRITICAL] HighCPU (2 hosts)"; buf.String() != want {
		t.Errorf("expected output %q, got %q", want, buf.String())
	}

	if err := tm.Execute(&buf, "nonexistent.tmpl", nil); err == nil {
		t.Fatal("expected an error for non-existent template, but got nil")
	}

	t.Run("ValueData", func(t *testing.T) {
		data := functions.Mapping(functions.MapOf(
			"alert", functions.MapOf("name", "DiskFull", "severity", "warning"),
			"hosts", []any{"db-1"},
		))
		got, err := tm.Render("alert.tmpl", data)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if got != "[WARNING] DiskFull (1 hosts)" {
			t.Errorf("unexpected render output %q", got)
		}
	})
}

func TestManager_ExecuteString(t *testing.T) {
	tm := setupTestManager(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"direct call", `{{ lowercase "LOUD" }}`, "loud"},
		{"keep call", `{{ keep "uppercase" .alert.name }}`, "HIGHCPU"},
		{"shadowed builtin via keep", `{{ keep "index" .hosts 1 }}`, "web-2"},
		{"template builtin intact", `{{ len .hosts }}`, "2"},
		{"pipeline", `{{ .alert.name | lowercase | encode }}`, "highcpu"},
		{"nested", `{{ join (split "a b c" " ") "-" }}`, "a-b-c"},
		{"range over result", `{{ range split "x,y" "," }}<{{ . }}>{{ end }}`, "<x><y>"},
		{"eq on result", `{{ if eq (first .hosts) "web-1" }}yes{{ end }}`, "yes"},
		{"kwargs", `{{ is_business_hours (kw "timezone" "Asia/Tokyo") }}`, "false"},
		{"datetime prints iso", `{{ utcnow }}`, "2024-01-03T14:30:00+00:00"},
		{"datetime flows back", `{{ datetime_compare utcnow .alert.firingStartTime }}`, "0.5"},
		{"firing time", `{{ get_firing_time .alert "m" }}`, "30.00"},
		{"sorted go map", `{{ keep "join" (dict_to_key_value_list .alert.labels) ";" }}`, "env:prod;team:sre"},
		{"partial", `{{ template "footer.part" . }}`, " (2 hosts)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tm.RenderString(tc.content, testContext())
			if err != nil {
				t.Fatalf("RenderString(%q) failed: %v", tc.content, err)
			}
			if got != tc.want {
				t.Errorf("RenderString(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}

	t.Run("FunctionErrorsSurface", func(t *testing.T) {
		_, err := tm.RenderString(`{{ first (split "" ",") }}{{ keep "first" .empty }}`, map[string]any{"empty": []any{}})
		if err == nil || !strings.Contains(err.Error(), "range error") {
			t.Errorf("expected range error from template, got %v", err)
		}
		_, err = tm.RenderString(`{{ keep "no_such_function" }}`, nil)
		if err == nil || !strings.Contains(err.Error(), "lookup error") {
			t.Errorf("expected lookup error from template, got %v", err)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		if _, err := tm.RenderString(`{{ uppercase `, nil); err == nil {
			t.Error("expected a parse error for an unterminated action")
		}
	})
}

func TestManager_Refresh(t *testing.T) {
	tm := setupTestManager(t)
	initialCount := len(tm.GetTemplateNames())

	writeTemplate(t, tm.GetTemplateDir(), "resolved.tmpl", `{{ .alert.name }} resolved`)
	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := len(tm.GetTemplateNames()); got != initialCount+1 {
		t.Errorf("expected %d templates after refresh, got %d", initialCount+1, got)
	}

	t.Run("BrokenTemplateKeepsPreviousSet", func(t *testing.T) {
		writeTemplate(t, tm.GetTemplateDir(), "broken.tmpl", `{{ if }}`)
		if err := tm.Refresh(); err == nil {
			t.Fatal("expected Refresh to fail on a broken template")
		}
		if _, err := tm.Render("resolved.tmpl", testContext()); err != nil {
			t.Errorf("previous templates should stay usable: %v", err)
		}
	})
}

func TestManager_SetConfig(t *testing.T) {
	tm := setupTestManager(t)

	newConfig := tm.GetConfig()
	newConfig.MissingKey = "error"
	if err := tm.SetConfig(&newConfig); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := tm.RenderString(`{{ .alert.missing }}`, testContext()); err == nil {
		t.Error("missingkey=error should fail on an absent key")
	}

	bad := newConfig
	bad.MaxOutputSize = -1
	if err := tm.SetConfig(&bad); err == nil {
		t.Error("expected SetConfig to reject a negative max_output_size")
	}
}

func TestManager_MaxOutputSize(t *testing.T) {
	tm := setupTestManager(t)
	config := tm.GetConfig()
	config.MaxOutputSize = 8
	if err := tm.SetConfig(&config); err != nil {
		t.Fatal(err)
	}
	_, err := tm.RenderString(`{{ "0123456789" }}`, nil)
	if !errors.Is(err, ErrOutputTooLarge) {
		t.Errorf("expected ErrOutputTooLarge, got %v", err)
	}
	if got, err := tm.RenderString(`{{ "short" }}`, nil); err != nil || got != "short" {
		t.Errorf("small output should render, got %q, %v", got, err)
	}
}

func TestManager_Watch(t *testing.T) {
	tm := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshed := make(chan error, 8)
	done := make(chan error, 1)
	go func() {
		done <- tm.Watch(ctx, func(err error) {
			select {
			case refreshed <- err:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher has registered the directory.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		writeTemplate(t, tm.GetTemplateDir(), "watched.tmpl", `watched`)
		select {
		case err := <-refreshed:
			if err != nil {
				t.Fatalf("refresh after change failed: %v", err)
			}
			if !contains(tm.GetTemplateNames(), "watched.tmpl") {
				t.Fatal("watched.tmpl not loaded after change")
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned error: %v", err)
			}
			return
		case <-ticker.C:
		case <-deadline:
			t.Fatal("timed out waiting for template reload")
		}
	}
}

// contains is a test helper.
func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// BenchmarkExecute_Simple measures the cost of a typical alert message.
func BenchmarkExecute_Simple(b *testing.B) {
	tm := setupTestManager(b)
	data := testContext()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tm.Execute(io.Discard, "alert.tmpl", data)
	}
}

// BenchmarkExecute_Datetime isolates datetime parsing inside templates.
func BenchmarkExecute_Datetime(b *testing.B) {
	tm := setupTestManager(b)
	writeTemplate(b, tm.GetTemplateDir(), "datetime.tmpl", `{{ get_firing_time .alert "m" }} {{ to_timestamp .alert.firingStartTime }}`)
	if err := tm.Refresh(); err != nil {
		b.Fatal(err)
	}
	data := testContext()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tm.Execute(io.Discard, "datetime.tmpl", data)
	}
}
