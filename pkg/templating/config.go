package templating

import "fmt"

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// TemplateDir is the directory holding *.tmpl message templates and
	// *.part partials.
	TemplateDir string `json:"template_dir"`

	// MissingKey sets the text/template "missingkey" option: "default",
	// "zero" or "error".
	MissingKey string `json:"missing_key"`

	// MaxOutputSize caps the size of a rendered message in bytes. 0 disables the cap.
	MaxOutputSize int `json:"max_output_size"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		TemplateDir:   "./templates",
		MissingKey:    "default",
		MaxOutputSize: 65536, // 64KB
	}
}

// Validate checks the configuration for values text/template would reject.
func (c *TemplateConfig) Validate() error {
	switch c.MissingKey {
	case "", "default", "invalid", "zero", "error":
	default:
		return fmt.Errorf("invalid missing_key %q", c.MissingKey)
	}
	if c.MaxOutputSize < 0 {
		return fmt.Errorf("max_output_size must not be negative")
	}
	return nil
}
