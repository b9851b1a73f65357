package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/types"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return tagerrors.NewConfigError("project", cfg.Project.Root, err)
	}

	if err := v.validateSchemasConfig(&cfg.Schemas); err != nil {
		return tagerrors.NewConfigError("schemas", "", err)
	}

	if err := v.validateCompletionConfig(&cfg.Completion); err != nil {
		return tagerrors.NewConfigError("completion", "", err)
	}

	if cfg.Watch.DebounceMs < 0 {
		return tagerrors.NewConfigError("watch", fmt.Sprint(cfg.Watch.DebounceMs),
			fmt.Errorf("DebounceMs cannot be negative, got %d", cfg.Watch.DebounceMs))
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateSchemasConfig(s *Schemas) error {
	if s.MaxFileSize < 0 {
		return fmt.Errorf("MaxFileSize cannot be negative, got %d", s.MaxFileSize)
	}
	if s.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("MaxFileSize should not exceed 100MB, got %d", s.MaxFileSize)
	}
	if s.MaxFiles < 0 {
		return fmt.Errorf("MaxFiles cannot be negative, got %d", s.MaxFiles)
	}
	for _, p := range append(append([]string{}, s.Include...), s.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	for _, d := range s.TagDirs {
		if strings.TrimSpace(d) == "" {
			return errors.New("tag directory cannot be empty")
		}
	}
	return nil
}

func (v *Validator) validateCompletionConfig(c *Completion) error {
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("FuzzyThreshold must be within [0, 1], got %g", c.FuzzyThreshold)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("MaxResults cannot be negative, got %d", c.MaxResults)
	}
	return nil
}

// setSmartDefaults fills zero values left by partial config files
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Schemas.MaxFileSize == 0 {
		cfg.Schemas.MaxFileSize = types.DefaultMaxFileSize
	}
	if cfg.Schemas.MaxFiles == 0 {
		cfg.Schemas.MaxFiles = types.DefaultMaxSchemaFiles
	}
	if len(cfg.Schemas.Include) == 0 {
		cfg.Schemas.Include = []string{"**/*.xsd"}
	}
	if cfg.Completion.MaxResults == 0 {
		cfg.Completion.MaxResults = types.DefaultMaxResults
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
