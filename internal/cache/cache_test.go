package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New[string]()
	c.now = func() time.Time { return now }

	c.Set("a", "alpha", time.Hour)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_SweepsOnWrite(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New[int]()
	c.now = func() time.Time { return now }

	for i := 0; i < sweepEvery-1; i++ {
		c.Set(fmt.Sprint(i), i, time.Minute)
	}
	now = now.Add(time.Hour)
	c.Set("fresh", 1, time.Hour)

	assert.Equal(t, 1, c.Len())
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, GenerateKey("t", "c"), GenerateKey("t", "c"))
	assert.NotEqual(t, GenerateKey("ab", "c"), GenerateKey("a", "bc"))
	assert.Len(t, GenerateKey("", ""), 64)
}
