package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/openbuilders/jetton-airdrop/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "jetton-airdrop:lock:abc", lockKey("abc"))
	assert.Equal(t, "jetton-airdrop:query_id:abc", queryIDKey("abc"))
}

// TestStore_Redis runs against a live Redis when REDIS_TEST_URL is set.
func TestStore_Redis(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := New(client, &Config{LockTTL: time.Minute})
	wallet := "test-" + uuid.NewString()

	release, err := store.Lock(ctx, wallet)
	require.NoError(t, err)

	_, err = store.Lock(ctx, wallet)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.Locked))

	require.NoError(t, release(ctx))

	release, err = store.Lock(ctx, wallet)
	require.NoError(t, err)
	require.NoError(t, release(ctx))

	_, ok, err := store.LastQueryID(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveQueryID(ctx, wallet, 4242))

	queryID, ok, err := store.LastQueryID(ctx, wallet)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(4242), queryID)

	require.NoError(t, client.Del(ctx, queryIDKey(wallet)).Err())
}
