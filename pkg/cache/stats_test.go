package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_HitRatio(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, 0.0, s.HitRatio())

	s.Hit()
	s.Hit()
	s.Hit()
	s.Miss()

	assert.Equal(t, int64(3), s.Hits())
	assert.Equal(t, int64(1), s.Misses())
	assert.InDelta(t, 0.75, s.HitRatio(), 1e-9)
}

func TestStatistics_SizeHighWater(t *testing.T) {
	s := NewStatistics()
	s.UpdateSize(3)
	s.UpdateSize(5)
	s.UpdateSize(2)

	assert.Equal(t, int64(2), s.CurrentSize())
	assert.Equal(t, int64(5), s.MaxSize())
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Hit()
	s.Miss()
	s.Put()
	s.Update()
	s.Promotion()
	s.Eviction()
	s.UpdateSize(4)
	s.UpdateSize(2)

	s.Reset()

	summary := s.Summary()
	assert.Zero(t, summary.Hits)
	assert.Zero(t, summary.Misses)
	assert.Zero(t, summary.Puts)
	assert.Zero(t, summary.Updates)
	assert.Zero(t, summary.Promotions)
	assert.Zero(t, summary.Evictions)
	assert.Equal(t, int64(2), summary.CurrentSize)
	assert.Equal(t, int64(2), summary.MaxSize)
}

func TestCacheStats_Tracking(t *testing.T) {
	c := mustNew[string, int](t, 2)

	c.Get("missing")
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	summary := c.Stats().Summary()
	assert.Equal(t, int64(1), summary.Hits)
	assert.Equal(t, int64(1), summary.Misses)
	assert.Equal(t, int64(3), summary.Puts)
	assert.Equal(t, int64(1), summary.Evictions)
	assert.Equal(t, int64(2), summary.CurrentSize)
	assert.Equal(t, 0.5, summary.HitRatio)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"evictions":1`)
}
