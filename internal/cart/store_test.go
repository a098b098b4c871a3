package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	c, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c.Add(3)
	require.NoError(t, s.Save(ctx, "sid", c))

	// mutating the caller's cart must not leak into the store
	c.Add(3)
	loaded, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Quantity(3))

	now = now.Add(2 * time.Hour)
	expired, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, expired.IsEmpty())

	require.NoError(t, s.Save(ctx, "sid", loaded))
	require.NoError(t, s.Clear(ctx, "sid"))
	cleared, _ := s.Load(ctx, "sid")
	assert.True(t, cleared.IsEmpty())
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "", 24*time.Hour)

	mock.ExpectGet("cart:abc").RedisNil()
	c, err := s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	mock.ExpectGet("cart:abc").SetVal(`{"2":3}`)
	c, err = s.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Quantity(2))

	c = New()
	c.Add(7)
	mock.ExpectSet("cart:abc", `{"7":1}`, 24*time.Hour).SetVal("OK")
	require.NoError(t, s.Save(ctx, "abc", c))

	mock.ExpectDel("cart:abc").SetVal(1)
	require.NoError(t, s.Save(ctx, "abc", New()))

	mock.ExpectGet("cart:abc").SetErr(errors.New("connection refused"))
	_, err = s.Load(ctx, "abc")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
