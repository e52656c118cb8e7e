package router

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCacheWithoutRedis(t *testing.T) {
	client, blacklist, err := connectCache(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, &services.MemoryBlacklist{}, blacklist)
}

func TestConnectCacheWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, blacklist, err := connectCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.NotNil(t, client)
	assert.IsType(t, &services.RedisBlacklist{}, blacklist)
}

func TestConnectCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := connectCache(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
