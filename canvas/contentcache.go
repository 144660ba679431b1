package canvas

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// ContentKey fingerprints a node's static visual: anything that changes
// the baked pixels participates. Position does not; the bitmap is baked
// at the node's local origin and placed at blit time, so drags reuse it.
type ContentKey struct {
	NodeID  string
	Label   string
	Shape   string
	SpecRev uint64
	W, H    float64
}

type contentEntry struct {
	key ContentKey
	img *ebiten.Image
}

// ContentCache holds the offscreen bitmaps of node static content.
// Entries are keyed per node and replaced wholesale when the
// fingerprint drifts; the old bitmap is disposed eagerly.
type ContentCache struct {
	entries map[string]*contentEntry
}

func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string]*contentEntry)}
}

// Get returns the cached bitmap when the fingerprint still matches.
func (c *ContentCache) Get(key ContentKey) (*ebiten.Image, bool) {
	e, ok := c.entries[key.NodeID]
	if !ok || e.key != key {
		return nil, false
	}
	return e.img, true
}

// Put stores a freshly baked bitmap, releasing any stale predecessor.
func (c *ContentCache) Put(key ContentKey, img *ebiten.Image) {
	if old, ok := c.entries[key.NodeID]; ok && old.img != nil && old.img != img {
		old.img.Deallocate()
	}
	c.entries[key.NodeID] = &contentEntry{key: key, img: img}
}

// Invalidate drops one node's bitmap.
func (c *ContentCache) Invalidate(nodeID string) {
	if e, ok := c.entries[nodeID]; ok {
		if e.img != nil {
			e.img.Deallocate()
		}
		delete(c.entries, nodeID)
	}
}

// Purge drops everything, freeing GPU memory on document or catalog
// replacement.
func (c *ContentCache) Purge() {
	for id, e := range c.entries {
		if e.img != nil {
			e.img.Deallocate()
		}
		delete(c.entries, id)
	}
}

// Len reports the live entry count.
func (c *ContentCache) Len() int { return len(c.entries) }
