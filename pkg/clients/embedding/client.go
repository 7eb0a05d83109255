package embedding

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"shopbot/config"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxBatchSize caps how many texts go into one API request.
	MaxBatchSize = 64
	// MaxRetries bounds provider retries per batch.
	MaxRetries = 3
	// LRUCacheCapacity is the embedding cache size.
	LRUCacheCapacity = 5000

	apiKeyEnv = "OPENAI_API_KEY"
)

// ErrUnavailable marks a provider failure after all retries. Write paths
// substitute a zero vector instead of propagating it; query paths surface it
// so the caller can decide how to degrade.
var ErrUnavailable = errors.New("embedding: provider unavailable")

var (
	instance *Client
	once     sync.Once
	initErr  error
)

// Provider is the capability the retrieval services consume. Satisfied by
// *Client and by test fakes.
type Provider interface {
	GetTextEmbedding(ctx context.Context, text string) ([]float64, error)
	GetTextEmbeddingBatch(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}

// Client talks to an OpenAI-compatible embeddings endpoint, with an LRU cache
// and retry/backoff around each batch.
type Client struct {
	client    openai.Client
	modelName string
	dimension int
	cache     *LRUCache
	metrics   *Metrics
}

// Metrics tracks simple usage counters.
type Metrics struct {
	IngestCount      int64
	QueryCount       int64
	EmbeddingLatency time.Duration
	mu               sync.Mutex
}

// GetInstance returns the shared embedding client.
func GetInstance() (*Client, error) {
	once.Do(func() {
		cfg := config.GetInstance()

		apiKey := os.Getenv(apiKeyEnv)
		if apiKey == "" {
			initErr = fmt.Errorf("%s is required", apiKeyEnv)
			return
		}

		modelName := cfg.GetString(config.EmbeddingConfigKeyModelName)
		if modelName == "" {
			initErr = fmt.Errorf("%s is required", config.EmbeddingConfigKeyModelName)
			return
		}

		baseURL := cfg.GetString(config.EmbeddingConfigKeyBaseURL)

		opts := []option.RequestOption{
			option.WithAPIKey(apiKey),
		}
		if baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}

		client := openai.NewClient(opts...)

		instance = &Client{
			client:    client,
			modelName: modelName,
			dimension: FixedDimension,
			cache:     NewLRUCache(LRUCacheCapacity),
			metrics:   &Metrics{},
		}
	})

	return instance, initErr
}

// Dimension reports the fixed vector width.
func (c *Client) Dimension() int {
	return c.dimension
}

// GetTextEmbedding embeds one text (cached).
func (c *Client) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := c.GetTextEmbeddingBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, errors.Wrap(ErrUnavailable, "no embedding returned")
	}

	return embeddings[0], nil
}

// GetTextEmbeddingBatch embeds texts with batch splitting, retry and caching.
func (c *Client) GetTextEmbeddingBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	c.metrics.mu.Lock()
	c.metrics.QueryCount++
	c.metrics.mu.Unlock()

	startTime := time.Now()
	defer func() {
		c.metrics.mu.Lock()
		c.metrics.EmbeddingLatency += time.Since(startTime)
		c.metrics.mu.Unlock()
	}()

	type textWithIndex struct {
		text  string
		index int
	}
	needRequest := make([]textWithIndex, 0)
	result := make([][]float64, len(texts))
	cacheHits := 0

	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			result[i] = cached
			cacheHits++
		} else {
			needRequest = append(needRequest, textWithIndex{text: text, index: i})
		}
	}

	if len(needRequest) == 0 {
		log.Debugf("All embeddings retrieved from cache (count: %d)", len(texts))
		return result, nil
	}

	allEmbeddings := make([][]float64, len(texts))
	for i := 0; i < len(needRequest); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(needRequest) {
			end = len(needRequest)
		}

		batch := needRequest[i:end]
		batchTexts := make([]string, len(batch))
		for j, item := range batch {
			batchTexts[j] = item.text
		}

		embeddings, err := c.getTextEmbeddingBatchWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, errors.Wrapf(ErrUnavailable, "batch %d-%d: %v", i, end, err)
		}

		for j, item := range batch {
			if j < len(embeddings) {
				allEmbeddings[item.index] = embeddings[j]
				c.cache.Put(item.text, embeddings[j])
			}
		}
	}

	for i := range texts {
		if result[i] == nil {
			result[i] = allEmbeddings[i]
		}
	}

	log.Debugf("Embedding batch completed: total=%d, cache_hits=%d, requests=%d",
		len(texts), cacheHits, len(needRequest))

	c.metrics.mu.Lock()
	c.metrics.IngestCount += int64(len(needRequest))
	c.metrics.mu.Unlock()

	return result, nil
}

func (c *Client) getTextEmbeddingBatchWithRetry(ctx context.Context, texts []string) ([][]float64, error) {
	var lastErr error

	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			// exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			log.Warnf("Retrying embedding request (attempt %d/%d) after %v", attempt+1, MaxRetries, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		embeddings, err := c.getTextEmbeddingBatchOnce(ctx, texts)
		if err == nil {
			return embeddings, nil
		}

		lastErr = err
		log.Errorf("Embedding request failed (attempt %d/%d): %v", attempt+1, MaxRetries, err)
	}

	return nil, fmt.Errorf("failed after %d retries: %w", MaxRetries, lastErr)
}

func (c *Client) getTextEmbeddingBatchOnce(ctx context.Context, texts []string) ([][]float64, error) {
	input := openai.EmbeddingNewParamsInputUnion{
		OfArrayOfStrings: texts,
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.modelName),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	result := make([][]float64, 0, len(resp.Data))
	for _, item := range resp.Data {
		result = append(result, item.Embedding)
	}

	return result, nil
}

// GetMetrics returns a copy of the usage counters.
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.Lock()
	defer c.metrics.mu.Unlock()
	return Metrics{
		IngestCount:      c.metrics.IngestCount,
		QueryCount:       c.metrics.QueryCount,
		EmbeddingLatency: c.metrics.EmbeddingLatency,
	}
}
