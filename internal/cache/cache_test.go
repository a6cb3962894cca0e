package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbench-api-server/internal/cache"
)

func TestCache(t *testing.T) {
	c, err := cache.NewCache()
	require.NoError(t, err)
	defer c.Clear()

	c.Set("job:1", "SUCCESS")
	c.Wait()

	value, ok := c.Get("job:1")
	require.True(t, ok)
	assert.Equal(t, "SUCCESS", value)

	c.Del("job:1")
	c.Wait()
	_, ok = c.Get("job:1")
	assert.False(t, ok)

	c.SetWithTTL("job:2", "FAILURE", time.Millisecond)
	c.Wait()
	assert.Eventually(t, func() bool {
		_, ok := c.Get("job:2")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
