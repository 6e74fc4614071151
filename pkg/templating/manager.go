package templating

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/CTAG07/keepfn/pkg/functions"
)

const (
	templateExt = ".tmpl"
	partialExt  = ".part"
)

// ErrOutputTooLarge is returned when a rendered message exceeds MaxOutputSize.
var ErrOutputTooLarge = errors.New("rendered output exceeds max_output_size")

// TemplateManager is the central controller for the templating engine.
// It manages the template set, configuration and the function map built from
// the function library. It is responsible for loading, parsing, and executing
// templates in a concurrent-safe manner.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger         *slog.Logger
	config         *TemplateConfig
	lib            *functions.Library
	templates      *template.Template
	cleanTemplates *template.Template
	templateNames  []string
	funcMap        template.FuncMap
	mu             sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// It requires a logger, the function library exposed to templates and a
// configuration. It performs an initial Refresh to load all templates.
func NewTemplateManager(logger *slog.Logger, lib *functions.Library, config *TemplateConfig) (*TemplateManager, error) {
	if lib == nil {
		return nil, errors.New("templating: function library is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tm := &TemplateManager{
		logger: logger,
		lib:    lib,
		config: config,
	}
	tm.funcMap = tm.makeFuncMap()

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "functions", len(tm.funcMap))
	return tm, nil
}

// SetConfig applies a new configuration to the TemplateManager. Callers
// should Refresh afterwards when TemplateDir or MissingKey changed.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
	return nil
}

// Refresh reloads all templates from the filesystem. This function allows for
// updates to templates without restarting the application. On error the
// previously loaded set stays active.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	root := template.New("").Funcs(tm.funcMap)
	if tm.config.MissingKey != "" {
		root = root.Option("missingkey=" + tm.config.MissingKey)
	}

	tm.logger.Info("Loading template files...", "dir", tm.config.TemplateDir)
	var names []string
	for _, ext := range []string{templateExt, partialExt} {
		files, err := filepath.Glob(filepath.Join(tm.config.TemplateDir, "*"+ext))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			continue
		}
		if root, err = root.ParseFiles(files...); err != nil {
			tm.logger.Error("failed to parse template files", "ext", ext, "error", err)
			return err
		}
		if ext == templateExt {
			for _, f := range files {
				names = append(names, filepath.Base(f))
			}
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		tm.logger.Warn("No template files found", "dir", tm.config.TemplateDir)
	}

	// Create a clean clone for string executions after all parsing is complete.
	clean, err := root.Clone()
	if err != nil {
		tm.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	tm.templates = root
	tm.cleanTemplates = clean
	tm.templateNames = names
	tm.logger.Info("Loaded template and partial files", "templates", len(names), "total", len(root.Templates()))
	return nil
}

// Execute renders a specific template by name, writing the output to the provided io.Writer.
// The `data` argument is passed to the template, typically the alert context.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return nil
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(tm.limit(w), name, templateData(data))
}

// ExecuteString parses and executes a raw template string using the manager's function map.
// Loaded partials can be referenced from the string.
func (tm *TemplateManager) ExecuteString(w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	// Clone the clean, unexecuted template set to avoid race conditions and execution state issues.
	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.New("inline").Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}

	return t.Execute(tm.limit(w), templateData(data))
}

// Render executes the named template and returns the message as a string.
func (tm *TemplateManager) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tm.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderString executes a raw template string and returns the message.
func (tm *TemplateManager) RenderString(content string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tm.ExecuteString(&buf, content, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateNames returns the names of the loaded message templates, without partials.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return append([]string(nil), tm.templateNames...)
}

// GetTemplateDir returns the template dir that the TemplateManager uses.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.config.TemplateDir
}

// isTemplateFile reports whether a path is something Refresh loads.
func isTemplateFile(path string) bool {
	return strings.HasSuffix(path, templateExt) || strings.HasSuffix(path, partialExt)
}

func (tm *TemplateManager) limit(w io.Writer) io.Writer {
	if tm.config.MaxOutputSize <= 0 {
		return w
	}
	return &limitWriter{w: w, remaining: tm.config.MaxOutputSize}
}

// limitWriter fails once more than its budget has been written.
type limitWriter struct {
	w         io.Writer
	remaining int
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if len(p) > l.remaining {
		n, err := l.w.Write(p[:l.remaining])
		l.remaining -= n
		if err != nil {
			return n, err
		}
		return n, ErrOutputTooLarge
	}
	n, err := l.w.Write(p)
	l.remaining -= n
	return n, err
}
