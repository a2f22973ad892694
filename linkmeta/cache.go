package linkmeta

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	cacheMaxEntries = 1000
	// Good results stay for a day; failed results only briefly so a dead
	// URL is not hammered but recovers quickly after a transient outage.
	resultTTL = 24 * time.Hour
	failedTTL = 10 * time.Minute
)

// resultCache keeps resolved metadata in process memory, keyed by the
// normalized URL. Separate LRUs give failed entries their shorter TTL.
type resultCache struct {
	ok     *expirable.LRU[string, *Metadata]
	failed *expirable.LRU[string, *Metadata]
}

func newResultCache() *resultCache {
	return &resultCache{
		ok:     expirable.NewLRU[string, *Metadata](cacheMaxEntries, nil, resultTTL),
		failed: expirable.NewLRU[string, *Metadata](cacheMaxEntries, nil, failedTTL),
	}
}

func (c *resultCache) get(key string) (*Metadata, bool) {
	if m, ok := c.ok.Get(key); ok {
		return m, true
	}
	if m, ok := c.failed.Get(key); ok {
		return m, true
	}
	return nil, false
}

func (c *resultCache) set(key string, m *Metadata) {
	if m.Status == StatusFailed {
		c.failed.Add(key, m)
		return
	}
	c.ok.Add(key, m)
}
