package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storages(t *testing.T) map[string]ClientStorage {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ClientStorage{
		"redis":  NewRedisClientStorage(client, time.Hour),
		"memory": NewMemoryClientStorage(),
	}
}

func TestClientStorage(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "sid-a", "theme", "dark"))
			require.NoError(t, s.Set(ctx, "sid-a", "tab", "calendar"))
			require.NoError(t, s.Set(ctx, "sid-b", "theme", "light"))

			got, err := s.All(ctx, "sid-a")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"theme": "dark", "tab": "calendar"}, got)

			require.NoError(t, s.Clear(ctx, "sid-a"))
			got, err = s.All(ctx, "sid-a")
			require.NoError(t, err)
			assert.Empty(t, got)

			other, err := s.All(ctx, "sid-b")
			require.NoError(t, err)
			assert.Equal(t, "light", other["theme"], "clearing one session leaves others alone")

			require.NoError(t, s.Clear(ctx, "never-set"))
		})
	}
}

func TestRedisClientStorageExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisClientStorage(client, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sid", "k", "v"))
	assert.Equal(t, 10*time.Minute, mr.TTL("client:sid"))

	mr.FastForward(11 * time.Minute)
	got, err := s.All(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, got)
}
