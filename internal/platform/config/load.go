package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix        = "APP_"
	defaultConfigDir = "configs"
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	configDir string
}

// WithConfigDir sets the directory holding the YAML files. Defaults to
// "configs" relative to the working directory.
func WithConfigDir(dir string) Option {
	return func(o *loadOptions) {
		o.configDir = dir
	}
}

// yamlLayer is one YAML file in the load order.
type yamlLayer struct {
	path     string
	optional bool
}

// Load builds the configuration for profile from, in increasing precedence:
//
//	built-in defaults
//	{dir}/base.yaml
//	{dir}/{profile}.yaml
//	{dir}/{profile}.secrets.yaml (optional, kept out of version control)
//	APP_* environment variables
//
// Env names are matched against the keys loaded so far, so field names
// containing underscores resolve correctly:
//
//	APP_SERVER_REQUEST_TIMEOUT -> server.request_timeout
//	APP_AUTH_JWT_SECRET        -> auth.jwt.secret
//	APP_EVENTS_KAFKA_BROKERS   -> events.kafka.brokers (comma separated)
func Load(profile string, opts ...Option) (*Config, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	o := &loadOptions{configDir: defaultConfigDir}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")
	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	layers := []yamlLayer{
		{path: filepath.Join(o.configDir, "base.yaml")},
		{path: filepath.Join(o.configDir, profile+".yaml")},
		{path: filepath.Join(o.configDir, profile+".secrets.yaml"), optional: true},
	}
	for _, l := range layers {
		if l.optional && !fileExists(l.path) {
			continue
		}
		if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.path, err)
		}
	}

	if err := k.Load(envProvider(k), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// envProvider maps APP_* variables onto the keys already loaded into k. An
// unknown name falls back to treating every underscore as a level separator.
// Keys holding a list take a comma separated value.
func envProvider(k *koanf.Koanf) *env.Env {
	lookup := make(map[string]string)
	for _, key := range k.Keys() {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}

	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(name, value string) (string, any) {
			name = strings.ToLower(strings.TrimPrefix(name, envPrefix))
			key, ok := lookup[name]
			if !ok {
				return strings.ReplaceAll(name, "_", "."), value
			}
			if isList(k.Get(key)) {
				return key, splitList(value)
			}
			return key, value
		},
	})
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	}
	return false
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	items := make([]string, 0, strings.Count(value, ",")+1)
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// validateProfile rejects empty profiles and anything that could escape
// the config directory.
func validateProfile(profile string) error {
	switch {
	case strings.TrimSpace(profile) == "":
		return errors.New("profile must not be empty")
	case strings.ContainsAny(profile, `/\`):
		return fmt.Errorf("profile must not contain path separators, got %q", profile)
	case strings.Contains(profile, ".."):
		return fmt.Errorf("profile must not contain path traversal, got %q", profile)
	}
	return nil
}
