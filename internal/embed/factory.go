package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderStatic uses hash-based embeddings (default; deterministic,
	// no network, no credentials).
	ProviderStatic ProviderType = "static"

	// ProviderOpenAI uses the OpenAI embeddings API or any compatible
	// endpoint.
	ProviderOpenAI ProviderType = "openai"

	// ProviderBedrock uses Amazon Bedrock Titan text embeddings.
	ProviderBedrock ProviderType = "bedrock"
)

// Options configures NewEmbedder. Zero values select working defaults for
// every provider.
type Options struct {
	Provider   ProviderType
	Model      string
	Dimensions int

	// APIKey and BaseURL apply to the openai provider. An empty APIKey
	// falls back to the OPENAI_API_KEY environment variable.
	APIKey  string
	BaseURL string

	// Region applies to the bedrock provider.
	Region string

	// CacheSize bounds the embedding cache; zero means DefaultCacheSize.
	CacheSize int

	// DisableCache turns off the LRU cache wrapper.
	DisableCache bool
}

// NewEmbedder creates an embedder for the configured provider.
//
// The DOCSIFT_EMBEDDER environment variable overrides the provider:
//   - "static": hash-based embeddings (default)
//   - "openai": OpenAI embeddings API
//   - "bedrock": Amazon Bedrock Titan
//
// Unless disabled, the embedder is wrapped with an LRU cache so repeated
// queries skip the provider. Set DOCSIFT_EMBED_CACHE=false to disable it.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	provider := opts.Provider
	if env := os.Getenv("DOCSIFT_EMBEDDER"); env != "" {
		provider = ParseProvider(env)
	}

	var embedder Embedder
	var err error

	switch provider {
	case ProviderOpenAI:
		key := opts.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		embedder, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     key,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})

	case ProviderBedrock:
		embedder, err = NewBedrockEmbedder(ctx, BedrockConfig{
			Region:     opts.Region,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
		})

	case ProviderStatic, "":
		embedder = NewStaticEmbedder()

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: %s)",
			provider, strings.Join(ValidProviders(), ", "))
	}
	if err != nil {
		return nil, err
	}

	if !opts.DisableCache && !isCacheDisabled() {
		embedder = NewCachedEmbedder(embedder, opts.CacheSize)
	}
	return embedder, nil
}

// isCacheDisabled checks if the embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("DOCSIFT_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// ParseProvider converts a string to ProviderType. Unknown names fall back
// to the static provider.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "openai":
		return ProviderOpenAI
	case "bedrock", "titan":
		return ProviderBedrock
	case "static":
		return ProviderStatic
	default:
		return ProviderStatic
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{
		string(ProviderStatic),
		string(ProviderOpenAI),
		string(ProviderBedrock),
	}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo describes an embedder for logging and the info command.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Cached     bool
}

// GetInfo returns information about an embedder, unwrapping the cache
// wrapper to identify the provider.
func GetInfo(embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
		info.Cached = true
	}

	switch inner.(type) {
	case *OpenAIEmbedder:
		info.Provider = ProviderOpenAI
	case *BedrockEmbedder:
		info.Provider = ProviderBedrock
	default:
		info.Provider = ProviderStatic
	}
	return info
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, opts Options) Embedder {
	embedder, err := NewEmbedder(ctx, opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
