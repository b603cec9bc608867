package config

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/models"
)

// NewLogger builds the root logger from LOG_LEVEL and LOG_FORMAT
func (cfg *Config) NewLogger(name string) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     os.Stderr,
		JSONFormat: cfg.LogFormat == "json",
	})
}

// Revision returns the schema revision in force
func (cfg *Config) Revision() models.SchemaRevision {
	if cfg.SchemaRevision == SchemaRevisionDraftOnly {
		return models.RevisionDraftOnly
	}
	return models.RevisionFull
}

// DefaultLogger is used before the configuration is available
func DefaultLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "aris", Level: hclog.Info, Output: os.Stderr})
}
