// Package config loads the docsift configuration from YAML with
// environment-variable overrides.
//
// Precedence, lowest to highest: built-in defaults, config file,
// DOCSIFT_* environment variables. The merged result is validated once;
// every other package receives already-checked values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docsift/docsift/internal/dense"
	"github.com/docsift/docsift/internal/embed"
)

// Config is the complete docsift configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus" json:"corpus"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Lexical    LexicalConfig    `yaml:"lexical" json:"lexical"`
	Dense      DenseConfig      `yaml:"dense" json:"dense"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// CorpusConfig configures where passages come from and whether the file is
// watched for changes.
type CorpusConfig struct {
	// Path is a JSON or JSONL passage file. Empty serves the embedded
	// demo corpus.
	Path string `yaml:"path" json:"path"`

	// Watch reloads the corpus when the file changes.
	Watch bool `yaml:"watch" json:"watch"`

	// WatchDebounce is the quiet window after the last file event before
	// the corpus is re-ingested (e.g. "500ms").
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
}

// SearchConfig configures result counts and fusion.
type SearchConfig struct {
	// DefaultTopK is the result count used when a request does not ask
	// for one.
	DefaultTopK int `yaml:"default_top_k" json:"default_top_k"`

	// ChatTopK is the result count behind chat responses.
	ChatTopK int `yaml:"chat_top_k" json:"chat_top_k"`

	// MaxTopK caps per-request result counts.
	MaxTopK int `yaml:"max_top_k" json:"max_top_k"`

	// FusionWeight is the dense share of the fused score, in [0, 1].
	// The lexical share is 1 - FusionWeight.
	FusionWeight float64 `yaml:"fusion_weight" json:"fusion_weight"`

	// OverfetchFactor sizes the dense candidate pool as factor*k. Must be
	// at least 2 so fusion can promote passages from past the cut line.
	OverfetchFactor int `yaml:"overfetch_factor" json:"overfetch_factor"`
}

// LexicalConfig configures vocabulary construction.
type LexicalConfig struct {
	// MinDocFreq drops terms appearing in fewer passages.
	MinDocFreq int `yaml:"min_doc_freq" json:"min_doc_freq"`

	// MaxVocab caps the vocabulary size.
	MaxVocab int `yaml:"max_vocab" json:"max_vocab"`
}

// DenseConfig configures the vector index.
type DenseConfig struct {
	// Backend selects the index implementation: "flat", "hnsw", or "auto".
	Backend string `yaml:"backend" json:"backend"`
}

// EmbeddingsConfig configures the embedding provider.
//
// Credentials never live here: the openai provider reads OPENAI_API_KEY and
// the bedrock provider uses the standard AWS credential chain.
type EmbeddingsConfig struct {
	// Provider is "static", "openai", or "bedrock".
	Provider string `yaml:"provider" json:"provider"`

	// Model names the provider's embedding model. Empty uses the
	// provider default.
	Model string `yaml:"model" json:"model"`

	// Dimensions overrides the embedding width where the provider
	// supports it. Zero uses the provider default.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BaseURL points the openai provider at a compatible endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Region applies to the bedrock provider.
	Region string `yaml:"region" json:"region"`

	// CacheSize bounds the embedding LRU cache. Zero uses the default.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// DisableCache turns the cache off entirely.
	DisableCache bool `yaml:"disable_cache" json:"disable_cache"`

	// Workers bounds concurrent passage embedding during corpus builds.
	// Zero uses the provider-appropriate default.
	Workers int `yaml:"workers" json:"workers"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// Timeouts are duration strings ("10s", "1m30s").
	ReadTimeout     string `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`

	// AddSource includes file:line in every record.
	AddSource bool `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns the built-in defaults. They match the service's
// original tuning: dense weight 0.7, 2x over-fetch, 1000-term vocabulary,
// 5 results per search and 3 per chat turn, capped at 50.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Path:          "",
			Watch:         true,
			WatchDebounce: "500ms",
		},
		Search: SearchConfig{
			DefaultTopK:     5,
			ChatTopK:        3,
			MaxTopK:         50,
			FusionWeight:    0.7,
			OverfetchFactor: 2,
		},
		Lexical: LexicalConfig{
			MinDocFreq: 1,
			MaxVocab:   1000,
		},
		Dense: DenseConfig{
			Backend: string(dense.BackendAuto),
		},
		Embeddings: EmbeddingsConfig{
			Provider: string(embed.ProviderStatic),
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "10s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// configCandidates are the file names Load tries when no explicit path is
// given, in order.
var configCandidates = []string{"docsift.yaml", "docsift.yml"}

// Load builds the effective configuration.
//
// With an explicit path the file must exist. With an empty path Load looks
// for docsift.yaml / docsift.yml in the working directory and silently uses
// defaults when neither is present. DOCSIFT_* environment variables are
// applied last, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range configCandidates {
			if !fileExists(candidate) {
				continue
			}
			if err := cfg.loadYAML(candidate); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	// Corpus. Watch can be explicitly false, so it merges whenever the
	// file sets a corpus path.
	if other.Corpus.Path != "" {
		c.Corpus.Path = other.Corpus.Path
		c.Corpus.Watch = other.Corpus.Watch
	}
	if other.Corpus.WatchDebounce != "" {
		c.Corpus.WatchDebounce = other.Corpus.WatchDebounce
	}

	// Search. Zero is not a usable value for counts or the over-fetch
	// factor, so only non-zero values merge. An explicit zero fusion
	// weight (lexical-only) comes in via DOCSIFT_FUSION_WEIGHT instead.
	if other.Search.DefaultTopK != 0 {
		c.Search.DefaultTopK = other.Search.DefaultTopK
	}
	if other.Search.ChatTopK != 0 {
		c.Search.ChatTopK = other.Search.ChatTopK
	}
	if other.Search.MaxTopK != 0 {
		c.Search.MaxTopK = other.Search.MaxTopK
	}
	if other.Search.FusionWeight != 0 {
		c.Search.FusionWeight = other.Search.FusionWeight
	}
	if other.Search.OverfetchFactor != 0 {
		c.Search.OverfetchFactor = other.Search.OverfetchFactor
	}

	// Lexical
	if other.Lexical.MinDocFreq != 0 {
		c.Lexical.MinDocFreq = other.Lexical.MinDocFreq
	}
	if other.Lexical.MaxVocab != 0 {
		c.Lexical.MaxVocab = other.Lexical.MaxVocab
	}

	// Dense
	if other.Dense.Backend != "" {
		c.Dense.Backend = other.Dense.Backend
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BaseURL != "" {
		c.Embeddings.BaseURL = other.Embeddings.BaseURL
	}
	if other.Embeddings.Region != "" {
		c.Embeddings.Region = other.Embeddings.Region
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.DisableCache {
		c.Embeddings.DisableCache = true
	}
	if other.Embeddings.Workers != 0 {
		c.Embeddings.Workers = other.Embeddings.Workers
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.ReadTimeout != "" {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != "" {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}
	if other.Server.ShutdownTimeout != "" {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.AddSource {
		c.Logging.AddSource = true
	}
}

// applyEnvOverrides applies DOCSIFT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSIFT_CORPUS"); v != "" {
		c.Corpus.Path = v
	}

	// Fusion weight supports an explicit zero (lexical-only), which the
	// YAML merge cannot express.
	if v := os.Getenv("DOCSIFT_FUSION_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 && w <= 1 {
			c.Search.FusionWeight = w
		}
	}
	if v := os.Getenv("DOCSIFT_DENSE_BACKEND"); v != "" {
		c.Dense.Backend = v
	}

	// DOCSIFT_EMBEDDER is also honored by the embedder factory; applying
	// it here keeps startup logs consistent with what actually gets built.
	if v := os.Getenv("DOCSIFT_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCSIFT_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCSIFT_OPENAI_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("DOCSIFT_AWS_REGION"); v != "" {
		c.Embeddings.Region = v
	}

	if v := os.Getenv("DOCSIFT_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("DOCSIFT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			c.Server.Port = p
		}
	}

	if v := os.Getenv("DOCSIFT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCSIFT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.FusionWeight < 0 || c.Search.FusionWeight > 1 {
		return fmt.Errorf("search.fusion_weight must be between 0 and 1, got %g", c.Search.FusionWeight)
	}
	if c.Search.OverfetchFactor < 2 {
		return fmt.Errorf("search.overfetch_factor must be at least 2, got %d", c.Search.OverfetchFactor)
	}
	if c.Search.DefaultTopK < 1 {
		return fmt.Errorf("search.default_top_k must be positive, got %d", c.Search.DefaultTopK)
	}
	if c.Search.ChatTopK < 1 {
		return fmt.Errorf("search.chat_top_k must be positive, got %d", c.Search.ChatTopK)
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		return fmt.Errorf("search.max_top_k must be at least default_top_k (%d), got %d",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}

	if c.Lexical.MinDocFreq < 1 {
		return fmt.Errorf("lexical.min_doc_freq must be at least 1, got %d", c.Lexical.MinDocFreq)
	}
	if c.Lexical.MaxVocab < 1 {
		return fmt.Errorf("lexical.max_vocab must be positive, got %d", c.Lexical.MaxVocab)
	}

	validBackends := map[string]bool{
		string(dense.BackendFlat): true,
		string(dense.BackendHNSW): true,
		string(dense.BackendAuto): true,
	}
	if !validBackends[strings.ToLower(c.Dense.Backend)] {
		return fmt.Errorf("dense.backend must be 'flat', 'hnsw', or 'auto', got %s", c.Dense.Backend)
	}

	if c.Embeddings.Provider != "" && !embed.IsValidProvider(c.Embeddings.Provider) {
		return fmt.Errorf("embeddings.provider must be one of %s, got %s",
			strings.Join(embed.ValidProviders(), ", "), c.Embeddings.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"corpus.watch_debounce", c.Corpus.WatchDebounce},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s is not a valid duration: %q", d.name, d.value)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %s", c.Logging.Format)
	}

	return nil
}

// Addr returns the host:port the gateway binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Duration parses a duration string, falling back when the string is empty.
// Validate rejects malformed values at load time, so after Load the
// fallback only ever applies to empty strings.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
