package config

import (
	"fmt"
	"strings"
	"time"
)

// RuntimeOverrides holds configuration values set from CLI flags
type RuntimeOverrides struct {
	ActiveModel *string
	MaxTokens   *int
	Temperature *float64
	Timeout     *time.Duration
	LogLevel    *string
	LogFile     *string
	DBPath      *string
}

func (o *RuntimeOverrides) apply(cfg *ConfigSchema) error {
	if o == nil {
		return nil
	}

	if o.ActiveModel != nil {
		name := strings.ToLower(*o.ActiveModel)
		if _, exists := cfg.Models[name]; !exists {
			return fmt.Errorf("model %q not found in configuration", *o.ActiveModel)
		}
		cfg.ActiveModel = name
	}

	if preset, ok := cfg.Models[cfg.ActiveModel]; ok {
		if o.MaxTokens != nil {
			preset.MaxTokens = *o.MaxTokens
		}
		if o.Temperature != nil {
			preset.Temperature = *o.Temperature
		}
		cfg.Models[cfg.ActiveModel] = preset
	}

	if o.Timeout != nil {
		cfg.Turn.Timeout = *o.Timeout
	}
	if o.LogLevel != nil && *o.LogLevel != "" {
		cfg.Log.LogLevel = *o.LogLevel
	}
	if o.LogFile != nil && *o.LogFile != "" {
		cfg.Log.LogFile = *o.LogFile
	}
	if o.DBPath != nil && *o.DBPath != "" {
		cfg.DBPath = *o.DBPath
	}
	return nil
}
