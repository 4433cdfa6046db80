package embed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/sync/errgroup"
)

// Bedrock provider defaults.
const (
	DefaultBedrockModel      = "amazon.titan-embed-text-v2:0"
	DefaultBedrockDimensions = 1024
)

// BedrockConfig configures the AWS Bedrock embedding provider. Credentials
// come from the default AWS chain (environment, shared config, instance
// role).
type BedrockConfig struct {
	// Region selects the AWS region; empty falls back to the AWS config
	// chain.
	Region string

	// Model is the Bedrock model identifier.
	Model string

	// Dimensions asks Titan v2 for a reduced output width (256, 512 or
	// 1024). Leave zero for models that do not accept it.
	Dimensions int
}

// BedrockEmbedder generates embeddings through Amazon Bedrock's Titan text
// embedding models.
type BedrockEmbedder struct {
	client  *bedrockruntime.Client
	modelID string
	dims    int
}

// NewBedrockEmbedder creates a Bedrock-backed embedder.
func NewBedrockEmbedder(ctx context.Context, cfg BedrockConfig) (*BedrockEmbedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultBedrockModel
		if cfg.Dimensions <= 0 {
			cfg.Dimensions = DefaultBedrockDimensions
		}
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("embed: load aws config: %w", err)
	}

	return &BedrockEmbedder{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.Model,
		dims:    cfg.Dimensions,
	}, nil
}

// titanEmbedRequest is the Titan text embeddings payload. Dimensions and
// Normalize are Titan v2 parameters; v1 rejects them.
type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

// titanEmbedResponse is the Titan text embeddings result.
type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed generates an embedding for a single text.
func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := titanEmbedRequest{InputText: text}
	if e.dims > 0 {
		req.Dimensions = e.dims
		req.Normalize = true
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("embed: marshal titan request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: bedrock invoke failed: %w", err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("embed: decode titan response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embed: titan returned an empty embedding")
	}
	return normalizeVector(resp.Embedding), nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
// Titan embeds one text per call, so requests fan out with bounded
// concurrency.
func (e *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultMaxConcurrency)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := e.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Dimensions returns the embedding dimension, or zero when the model's
// native width is used.
func (e *BedrockEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *BedrockEmbedder) ModelName() string {
	return e.modelID
}

// Close releases resources. The AWS client holds none that need closing.
func (e *BedrockEmbedder) Close() error {
	return nil
}

// Verify interface implementation
var _ Embedder = (*BedrockEmbedder)(nil)
