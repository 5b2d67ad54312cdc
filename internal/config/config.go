// Package config loads and validates the operator's configuration.
//
// Configuration is a single YAML file layered over defaults that match
// a local Ollama and Stable Diffusion setup. The effective config
// (defaults plus overrides) is validated against an embedded CUE schema
// before anything starts, so a bad file fails loudly at startup instead
// of surfacing mid-loop.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/twirvo/revival/internal/pipeline"
)

//go:embed schema.cue
var schemaSource string

// DefaultLedgerPath is the stock ledger location, shared with the CLI
// flag defaults so they cannot drift from Default.
const DefaultLedgerPath = "./simulated_twirvo_ledger.txt"

// Config is the operator's effective configuration.
type Config struct {
	// LedgerPath locates the append-only ledger file.
	LedgerPath string `yaml:"ledger_path"`

	// AvatarDir is where generated avatar files are written;
	// AvatarLinkPrefix is the reference prefix recorded in the ledger.
	AvatarDir        string `yaml:"avatar_dir"`
	AvatarLinkPrefix string `yaml:"avatar_link_prefix"`

	// IntervalSeconds is the pause between cycles. Zero runs
	// back-to-back.
	IntervalSeconds int `yaml:"interval_seconds"`

	Ollama OllamaConfig `yaml:"ollama"`
	Image  ImageConfig  `yaml:"image"`

	// Catalog optionally overrides parts of the stock creative
	// material.
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`
}

// OllamaConfig locates the text-generation collaborator.
type OllamaConfig struct {
	URL            string `yaml:"url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ImageConfig locates the image-generation collaborator.
type ImageConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c ImageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CatalogConfig overrides the stock topic and scene prompts.
type CatalogConfig struct {
	Topics []string `yaml:"topics,omitempty"`
	Scenes []string `yaml:"scenes,omitempty"`
}

// Default returns the stock configuration: local collaborators, ledger
// and avatars under the working directory.
func Default() Config {
	return Config{
		LedgerPath:       DefaultLedgerPath,
		AvatarDir:        "public/simulated_user_pfps",
		AvatarLinkPrefix: "/simulated_user_pfps/",
		IntervalSeconds:  0,
		Ollama: OllamaConfig{
			URL:            "http://localhost:11434",
			Model:          "gemma3:4b",
			TimeoutSeconds: 60,
		},
		Image: ImageConfig{
			URL:            "http://127.0.0.1:7860",
			TimeoutSeconds: 45,
		},
	}
}

// Load reads the YAML file at path, layers it over Default, and
// validates the result. An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true) // reject unknown keys before the schema sees defaults
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the effective config against the embedded CUE schema.
func Validate(cfg Config) error {
	// Round-trip through YAML so field names match the schema.
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// BuildCatalog returns the effective creative catalog: stock material
// with any configured overrides applied.
func (c Config) BuildCatalog() *pipeline.Catalog {
	cat := pipeline.DefaultCatalog()
	if c.Catalog == nil {
		return cat
	}
	if len(c.Catalog.Topics) > 0 {
		cat.Topics = c.Catalog.Topics
	}
	if len(c.Catalog.Scenes) > 0 {
		cat.Scenes = c.Catalog.Scenes
	}
	return cat
}
