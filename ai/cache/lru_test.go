package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/readle/ai/format"
)

func TestLRU_Creation(t *testing.T) {
	testCases := []struct {
		name      string
		capacity  int
		expectCap int
	}{
		{"default capacity", 0, 256},
		{"negative capacity", -3, 256},
		{"custom capacity", 10, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRU[string, int](tc.capacity)
			assert.Equal(t, tc.expectCap, c.Capacity())
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU[string, string](4)

	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("a", "2")
	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](32)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*i)%64)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 32)
}

func TestFormatter_CachesResults(t *testing.T) {
	f := NewFormatter(nil, 8)

	res, hit := f.Classify("1. a\n2. b")
	assert.False(t, hit)
	assert.Equal(t, format.StrategyNumberedList, res.Strategy)
	assert.Len(t, res.Fragments, 2)

	res, hit = f.Classify("1. a\n2. b")
	assert.True(t, hit)
	assert.Len(t, res.Fragments, 2)

	assert.Equal(t, []format.Fragment{format.PlainText{Text: "hello"}}, f.Format("hello"))

	st := f.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 8, st.Capacity)
}

func TestFormatter_CallersCannotCorruptCache(t *testing.T) {
	f := NewFormatter(nil, 8)
	want := []format.Fragment{format.NumberedItem{Label: "1", Text: "a"}, format.NumberedItem{Label: "2", Text: "b"}}

	first := f.Format("1. a\n2. b")
	require.Equal(t, want, first)
	first[0] = format.PlainText{Text: "changed"}
	_ = append(first[:1], format.PlainText{Text: "appended"})

	res, hit := f.Classify("1. a\n2. b")
	require.True(t, hit)
	assert.Equal(t, want, res.Fragments)

	res.Fragments[1] = format.PlainText{Text: "changed again"}
	assert.Equal(t, want, f.Format("1. a\n2. b"))
}

func TestFormatter_UsesInnerOptions(t *testing.T) {
	f := NewFormatter(format.New(format.Options{MinListItems: 3}), 8)
	res, _ := f.Classify("1. a\n2. b")
	assert.Equal(t, format.StrategyMixed, res.Strategy)
}
