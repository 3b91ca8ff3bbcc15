package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"github.com/hrygo/readle/ai/format"
)

// Formatter memoizes format results by message content. Formatting is
// deterministic, so entries never go stale and only capacity evicts them.
type Formatter struct {
	inner  *format.Formatter
	lru    *LRU[string, format.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits     int64
	Misses   int64
	Entries  int
	Capacity int
}

// NewFormatter wraps inner with an LRU of the given capacity.
func NewFormatter(inner *format.Formatter, capacity int) *Formatter {
	if inner == nil {
		inner = format.New(format.Options{})
	}
	return &Formatter{
		inner: inner,
		lru:   NewLRU[string, format.Result](capacity),
	}
}

// Classify returns the cached result for content, computing it on a miss.
// The second value reports whether the result came from the cache. The
// fragments are a copy the caller may modify.
func (f *Formatter) Classify(content string) (format.Result, bool) {
	key := contentKey(content)
	if res, ok := f.lru.Get(key); ok {
		f.hits.Add(1)
		return withOwnFragments(res), true
	}
	f.misses.Add(1)
	res := f.inner.Classify(content)
	f.lru.Set(key, res)
	return withOwnFragments(res), false
}

func withOwnFragments(res format.Result) format.Result {
	res.Fragments = append(make([]format.Fragment, 0, len(res.Fragments)), res.Fragments...)
	return res
}

// Format is Classify without the strategy and hit information.
func (f *Formatter) Format(content string) []format.Fragment {
	res, _ := f.Classify(content)
	return res.Fragments
}

// Stats returns hit and miss counters.
func (f *Formatter) Stats() Stats {
	return Stats{
		Hits:     f.hits.Load(),
		Misses:   f.misses.Load(),
		Entries:  f.lru.Len(),
		Capacity: f.lru.Capacity(),
	}
}

func contentKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}
