// Package ai holds adapters shared by the model-backed enhancers.
package ai

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"skillsync/internal/domain/matching"
)

const defaultCacheSize = 4096

// CachedEmbedder memoizes vectors per normalized text and only forwards misses.
type CachedEmbedder struct {
	inner matching.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner matching.Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](defaultCacheSize)
	}
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		missTexts []string
		missIdx   = map[string][]int{}
	)
	for i, t := range texts {
		key := cacheKey(t)
		if v, ok := c.cache.Get(key); ok {
			out[i] = v
			continue
		}
		if _, pending := missIdx[key]; !pending {
			missTexts = append(missTexts, t)
		}
		missIdx[key] = append(missIdx[key], i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	for i, t := range missTexts {
		key := cacheKey(t)
		c.cache.Add(key, vecs[i])
		for _, idx := range missIdx[key] {
			out[idx] = vecs[i]
		}
	}
	return out, nil
}

func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
