// Package intern deduplicates the small recurring strings a parse
// produces in bulk (tag names, attribute names, namespace URIs) so a
// million <item> elements share one allocation. Backed by a bounded
// LRU so a pathological document with unbounded distinct names cannot
// pin memory.
package intern

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type Pool struct {
	cache *lru.Cache[string, string]
}

// New returns a Pool holding at most size distinct strings. size below
// 1 falls back to 1024.
func New(size int) (*Pool, error) {
	if size < 1 {
		size = 1024
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Pool{cache: cache}, nil
}

// Get returns the pooled copy of s, adding s if absent.
func (p *Pool) Get(s string) string {
	if v, ok := p.cache.Get(s); ok {
		return v
	}
	p.cache.Add(s, s)
	return s
}

func (p *Pool) Len() int { return p.cache.Len() }
