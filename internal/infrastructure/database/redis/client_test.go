package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molstandardizer/internal/config"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/molstandardizer/pkg/errors"
)

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newMiniredisClient(t)
	assert.NoError(t, client.Ping(context.Background()))
	assert.NotNil(t, client.Underlying())
}

func TestNewClient_MissingAddr(t *testing.T) {
	client, err := NewClient(config.RedisConfig{}, nil)
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: addr}, logging.NewNopLogger())
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestClient_Operations(t *testing.T) {
	client, _ := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)
}

func TestClient_Closed(t *testing.T) {
	client, _ := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	assert.ErrorIs(t, client.Get(ctx, "foo").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "foo", "bar", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
}
