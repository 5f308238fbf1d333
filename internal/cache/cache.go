package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store keeps JSON-serializable values for a limited time.
type Store interface {
	// Get decodes the value under key into dst. It reports false when the
	// key is missing or expired.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Key builds the memoization key for one headline request.
func Key(strategy, subject string, page, pageSize int) string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		subject = "_"
	}
	return fmt.Sprintf("headlines:%s:%s:%d:%d", strategy, subject, page, pageSize)
}

type item struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]item),
		now:   time.Now,
	}
}

func (c *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || c.now().After(it.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(it.data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RunCleanup drops expired entries every interval until ctx is done.
func (c *Memory) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Memory) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
		}
	}
}
