package config

import (
	"fmt"
	"go/token"
	"path/filepath"

	"github.com/agentic-research/respack/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := validatePage("fonts.page_size", c.Fonts.PageSize, "fonts.padding", c.Fonts.Padding); err != nil {
		return err
	}
	if err := validatePage("atlas.max_page_size", c.Atlas.MaxPageSize, "atlas.padding", c.Atlas.Padding); err != nil {
		return err
	}
	return c.validateOutput()
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

func (c *Config) validateIngest() error {
	for _, p := range c.Ingest.Ignore {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("ingest.ignore %q: %w", p, err)
		}
	}
	return nil
}

func validatePage(sizeKey string, size int, padKey string, padding int) error {
	if size <= 0 || size > maxPageSize {
		return fmt.Errorf("%s must be between 1 and %d, got %d", sizeKey, maxPageSize, size)
	}
	if padding < 0 || padding >= size {
		return fmt.Errorf("%s must be between 0 and %s, got %d", padKey, sizeKey, padding)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !token.IsIdentifier(c.Output.GoPackage) {
		return fmt.Errorf("output.go_package %q is not a valid package name", c.Output.GoPackage)
	}
	return nil
}
