package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Titles []string `json:"titles"`
	Total  int      `json:"total"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "headlines:top:_:1:20", Key("top", "", 1, 20))
	assert.Equal(t, "headlines:category:technology:2:20", Key("category", " Technology ", 2, 20))
	assert.Equal(t, "headlines:search:mars rover:1:50", Key("search", "Mars Rover", 1, 50))
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var got page
	ok, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", page{Titles: []string{"a", "b"}, Total: 2}, time.Minute))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, page{Titles: []string{"a", "b"}, Total: 2}, got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", page{Total: 1}, time.Minute))
	now = now.Add(2 * time.Minute)

	var got page
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries stay until cleanup")

	c.cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestMemory_RunCleanupStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewMemory().RunCleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestMemory_EncodeError(t *testing.T) {
	err := NewMemory().Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}

func TestRedis_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db)
	ctx := context.TODO()

	// Hit
	mock.ExpectGet("k").SetVal(`{"titles":["a"],"total":1}`)
	var got page
	ok, err := store.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, page{Titles: []string{"a"}, Total: 1}, got)

	// Miss
	mock.ExpectGet("k").RedisNil()
	ok, err = store.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Error
	mock.ExpectGet("k").SetErr(errors.New("redis error"))
	_, err = store.Get(ctx, "k", &got)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failure")

	// Corrupt value
	mock.ExpectGet("k").SetVal("not json")
	_, err = store.Get(ctx, "k", &got)
	assert.Error(t, err)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedis_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedis(db)
	ctx := context.TODO()

	// Success
	mock.ExpectSet("k", []byte(`{"titles":null,"total":3}`), 10*time.Minute).SetVal("OK")
	err := store.Set(ctx, "k", page{Total: 3}, 10*time.Minute)
	assert.NoError(t, err)

	// Error
	mock.ExpectSet("k", []byte(`{"titles":null,"total":3}`), 10*time.Minute).SetErr(errors.New("redis error"))
	err = store.Set(ctx, "k", page{Total: 3}, 10*time.Minute)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis set failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Redis)(nil)
)
