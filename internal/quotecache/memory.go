package quotecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/avstrong/bungalows/internal/pricing"
)

// Memory is a process-local quote cache. Entries are stored encoded so callers never share a
// *pricing.QuoteResult. Expired entries are dropped by the cache's janitor every ttl.
type Memory struct {
	entries *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		return &Memory{entries: gocache.New(gocache.NoExpiration, 0)}
	}

	return &Memory{entries: gocache.New(ttl, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (*pricing.QuoteResult, bool, error) {
	v, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}

	payload, ok := v.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("cached quote %v has type %T: %w", key, v, pricing.ErrLogic)
	}

	var quote pricing.QuoteResult
	if err := json.Unmarshal(payload, &quote); err != nil {
		return nil, false, fmt.Errorf("decode cached quote %v: %w", key, err)
	}

	return &quote, true, nil
}

func (m *Memory) Set(_ context.Context, key string, quote *pricing.QuoteResult) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote %v: %w", key, err)
	}

	m.entries.SetDefault(key, payload)

	return nil
}

func (m *Memory) Len() int {
	return m.entries.ItemCount()
}
