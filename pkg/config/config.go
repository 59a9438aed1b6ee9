// Package config holds the options of a single generation run.
package config

import (
	"errors"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	"github.com/cubahno/typegen/pkg/graph"
)

// ErrInvalidConfig is returned for unusable option values.
var ErrInvalidConfig = errors.New("invalid config")

// envPrefix maps TYPEGEN_* variables onto config keys.
const envPrefix = "TYPEGEN_"

// Config are the options of one generation run.
// Provider selects the OpenAPI parser building the schema graph.
// Concurrency bounds the per-schema synthesis workers; 1 means sequential.
// Output is the file path for the emitted type model, empty for stdout.
// Pretty toggles indented JSON output.
type Config struct {
	Provider    string `koanf:"provider"`
	Concurrency int    `koanf:"concurrency"`
	Output      string `koanf:"output"`
	Pretty      bool   `koanf:"pretty"`
}

// NewDefaultConfig creates the config used when no file is present.
func NewDefaultConfig() *Config {
	return &Config{
		Provider:    string(graph.LibOpenAPIProvider),
		Concurrency: 1,
	}
}

// NewConfigFromFile creates a config from a YAML file,
// with TYPEGEN_* environment variables taking precedence.
func NewConfigFromFile(filePath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
		return nil, err
	}
	return unmarshalConfig(k)
}

// NewConfigFromContent creates a config from raw YAML bytes.
func NewConfigFromContent(content []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, err
	}
	return unmarshalConfig(k)
}

func unmarshalConfig(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, err
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the option values.
func (c *Config) Validate() error {
	switch graph.Provider(c.Provider) {
	case graph.KinOpenAPIProvider, graph.LibOpenAPIProvider:
	default:
		return errors.Join(ErrInvalidConfig, errors.New("unknown provider "+c.Provider))
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return nil
}
