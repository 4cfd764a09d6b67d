package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeLogging()
	c.normalizeIngest()
	return c.normalizeOutput()
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizeIngest() {
	patterns := c.Ingest.Ignore[:0]
	for _, p := range c.Ingest.Ignore {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	c.Ingest.Ignore = patterns
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.IndexDB, err = expandPath(strings.TrimSpace(c.Output.IndexDB)); err != nil {
		return fmt.Errorf("output.index_db: %w", err)
	}
	if c.Output.GoIndex, err = expandPath(strings.TrimSpace(c.Output.GoIndex)); err != nil {
		return fmt.Errorf("output.go_index: %w", err)
	}
	if c.Output.StagingDir, err = expandPath(strings.TrimSpace(c.Output.StagingDir)); err != nil {
		return fmt.Errorf("output.staging_dir: %w", err)
	}
	c.Output.GoPackage = strings.TrimSpace(c.Output.GoPackage)
	if c.Output.GoPackage == "" {
		c.Output.GoPackage = defaultGoPackage
	}
	return nil
}
