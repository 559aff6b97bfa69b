package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", got)

	c.Set("a", "2")
	got, _ = c.Get("a")
	assert.Equal(t, "2", got)
	assert.Equal(t, 1, c.Size())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was least recently used")
	assert.True(t, okC)
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.advance(30 * time.Second)
	c.Set("c", "3")
	clock.advance(45 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired(), "b expires on cleanup, a was removed by Get")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_ClearAndDelete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), "v")
	}
	c.Delete("0")
	assert.Equal(t, 4, c.Size())
	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("1")
	assert.False(t, ok)
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](50, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprint(i % 60)
				c.Set(key, g)
				c.Get(key)
				if i%50 == 0 {
					c.Clear()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Size(), 50)
}

func TestManager_CleanNow(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	m := NewManager(nil)
	m.Register(c)

	assert.Equal(t, 0, m.CleanNow())
	clock.advance(2 * time.Minute)
	assert.Equal(t, 1, m.CleanNow())

	m.StartCleanup(time.Millisecond)
	m.Stop()
}
