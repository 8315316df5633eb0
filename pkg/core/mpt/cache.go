package mpt

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/mptdb/pkg/util"
)

// NodeCache is a size-bounded cache of decoded committed nodes. Nodes are
// immutable once committed, so the cache can be shared between tries and is
// safe for concurrent use.
type NodeCache struct {
	c *lru.Cache
}

// NewNodeCache returns a cache holding up to size nodes.
func NewNodeCache(size int) (*NodeCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &NodeCache{c: c}, nil
}

// Get returns the node with digest h if it's cached.
func (c *NodeCache) Get(h util.Uint256) (Node, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.c.Get(h)
	if !ok {
		return nil, false
	}
	cacheHits.Inc()
	return v.(Node), true
}

// Add puts n with digest h into the cache.
func (c *NodeCache) Add(h util.Uint256, n Node) {
	if c == nil {
		return
	}
	c.c.Add(h, n)
}

// Len returns the number of cached nodes.
func (c *NodeCache) Len() int {
	if c == nil {
		return 0
	}
	return c.c.Len()
}
