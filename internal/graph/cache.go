package graph

import "sync"

// Cache keeps graphs of frozen expeditions. Published graphs never change, so
// entries are never invalidated; drafts must not be stored.
type Cache struct {
	m sync.Map
}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) Get(expeditionID string) (*Graph, bool) {
	v, ok := c.m.Load(expeditionID)
	if !ok {
		return nil, false
	}
	return v.(*Graph), true
}

func (c *Cache) Put(g *Graph) {
	c.m.Store(g.ExpeditionID(), g)
}
