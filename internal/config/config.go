package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

/*
Configuration is layered, highest priority first:

1. Environment variables (API keys and AGENTX_* overrides)
2. Local project config (.agentx/*.agentx.{yaml,json})
3. Global user config ($XDG_CONFIG_HOME/agentx/*.agentx.{yaml,json})
4. Embedded defaults (defaults.agentx.yaml)

Several files in one directory are merged alphabetically. Lists combine,
maps merge deeply, scalars are overridden.
*/

//go:embed defaults.agentx.yaml
var defaultsYAML []byte

const appName = "agentx"

// envVarConfig maps an environment variable onto a config key
type envVarConfig struct {
	key      string
	envVar   string
	isSecret bool
}

var envVars = []envVarConfig{
	{key: "providers.coingecko.apiKey", envVar: "COINGECKO_API_KEY", isSecret: true},
	{key: "providers.tavily.apiKey", envVar: "TAVILY_API_KEY", isSecret: true},
	{key: "providers.bird.apiKey", envVar: "BIRD_API_KEY", isSecret: true},
	{key: "dbPath", envVar: "AGENTX_DB_PATH"},
}

type configSource struct {
	value  interface{}
	source string
}

// loader wraps the viper instance while files are being merged
type loader struct {
	v       *viper.Viper
	sources map[string][]configSource
	known   map[string]bool
}

// New loads the full configuration and applies runtime overrides
func New(overrides *RuntimeOverrides) (*ConfigSchema, error) {
	return Load(overrides, searchDirs()...)
}

// Load is New with explicit config directories, used by tests
func Load(overrides *RuntimeOverrides, dirs ...string) (*ConfigSchema, error) {
	loadDotEnv()

	l := &loader{
		v:       viper.New(),
		sources: make(map[string][]configSource),
		known:   GetKnownKeys(),
	}

	l.v.SetConfigType("yaml")
	if err := l.v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return nil, fmt.Errorf("could not read defaults: %w", err)
	}

	l.v.SetEnvPrefix(strings.ToUpper(appName))
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for _, env := range envVars {
		if err := l.v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env.envVar, err)
		}
	}

	for _, dir := range dirs {
		if err := l.loadDir(dir); err != nil {
			return nil, err
		}
	}
	l.trackEnv()

	var cfg ConfigSchema
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.sources = l.sources
	// viper lowercases map keys, so preset references must match that
	cfg.ActiveModel = strings.ToLower(cfg.ActiveModel)
	cfg.Internal.Model = strings.ToLower(cfg.Internal.Model)

	if err := overrides.apply(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func searchDirs() []string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	var dirs []string
	if xdgConfig != "" {
		dirs = append(dirs, filepath.Join(xdgConfig, appName))
	}
	return append(dirs, "."+appName)
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if home, err := os.UserHomeDir(); err == nil {
			_ = godotenv.Load(filepath.Join(home, "."+appName+".env"))
		}
	}
}

// findConfigFiles returns all *.agentx.{yaml,json} files in a directory
func findConfigFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, "."+appName+".yaml") ||
			strings.HasSuffix(name, "."+appName+".json") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

func (l *loader) loadDir(dir string) error {
	files, err := findConfigFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, f := range files {
		fv := viper.New()
		fv.SetConfigFile(f)
		if err := fv.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", f, err)
		}

		for _, key := range fv.AllKeys() {
			if !IsKnownKey(l.known, key) {
				slog.Warn("unknown config key", "key", key, "file", f)
			}
			l.sources[key] = append(l.sources[key], configSource{value: fv.Get(key), source: f})
		}

		if err := l.merge(fv.AllSettings()); err != nil {
			return fmt.Errorf("error merging config from %s: %w", f, err)
		}
	}
	return nil
}

func (l *loader) trackEnv() {
	for _, env := range envVars {
		val := os.Getenv(env.envVar)
		if val == "" {
			continue
		}
		if env.isSecret {
			val = "[REDACTED]"
		}
		key := strings.ToLower(env.key)
		l.sources[key] = append(l.sources[key], configSource{
			value:  val,
			source: env.envVar + " environment variable",
		})
	}
}

func (l *loader) merge(settings map[string]interface{}) error {
	for key, value := range settings {
		existing := l.v.Get(key)
		if existing == nil {
			l.v.Set(key, value)
			continue
		}

		switch existingVal := existing.(type) {
		case []interface{}:
			newSlice, ok := value.([]interface{})
			if !ok {
				return fmt.Errorf("type mismatch for key %s: expected slice, got %T", key, value)
			}
			l.v.Set(key, appendUnique(existingVal, newSlice))
		case map[string]interface{}:
			newMap, ok := value.(map[string]interface{})
			if !ok {
				return fmt.Errorf("type mismatch for key %s: expected map, got %T", key, value)
			}
			l.v.Set(key, mergeMapRecursive(existingVal, newMap))
		default:
			l.v.Set(key, value)
		}
	}
	return nil
}

// appendUnique combines two lists, dropping repeated scalar entries
func appendUnique(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a)+len(b))
	seen := make(map[string]bool)
	for _, v := range append(append([]interface{}{}, a...), b...) {
		k := fmt.Sprintf("%#v", v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func mergeMapRecursive(existing, incoming map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		result[k] = v
	}

	for k, v := range incoming {
		switch existingVal := existing[k].(type) {
		case map[string]interface{}:
			if newVal, ok := v.(map[string]interface{}); ok {
				result[k] = mergeMapRecursive(existingVal, newVal)
				continue
			}
		case []interface{}:
			if newVal, ok := v.([]interface{}); ok {
				result[k] = appendUnique(existingVal, newVal)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// Validate checks struct tags and cross-field references
func (s *ConfigSchema) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}

	if _, ok := s.Models[s.ActiveModel]; !ok {
		return fmt.Errorf("activeModel %q must be one of the configured models", s.ActiveModel)
	}
	if s.Internal.Model != "" {
		if _, ok := s.Models[s.Internal.Model]; !ok {
			return fmt.Errorf("internal.model %q must be one of the configured models", s.Internal.Model)
		}
	}
	return nil
}
