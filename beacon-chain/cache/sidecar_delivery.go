package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
)

// Sidecars received over gossip stay useful to by-root request servicing for
// a short window before they land in canonical storage.
const (
	sidecarDeliveryTTL   = 2 * time.Minute
	sidecarSweepInterval = 30 * time.Second
)

// SidecarDeliveryCache is a short-lived cache of gossip-delivered blob and
// data column sidecars, consulted by by-root request handlers before falling
// back to the store. Read-mostly; safe for concurrent use.
type SidecarDeliveryCache struct {
	blobs   *gocache.Cache
	columns *gocache.Cache
}

// NewSidecarDeliveryCache creates the cache with the default TTL.
func NewSidecarDeliveryCache() *SidecarDeliveryCache {
	return &SidecarDeliveryCache{
		blobs:   gocache.New(sidecarDeliveryTTL, sidecarSweepInterval),
		columns: gocache.New(sidecarDeliveryTTL, sidecarSweepInterval),
	}
}

func sidecarKey(root [32]byte, index uint64) string {
	return fmt.Sprintf("%#x/%d", root, index)
}

// PutBlob stashes a gossip-delivered blob sidecar.
func (c *SidecarDeliveryCache) PutBlob(sc *blocks.BlobSidecar) {
	c.blobs.SetDefault(sidecarKey(sc.BlockRoot, sc.Index), sc)
}

// Blob returns the cached blob sidecar for the identifier, if any.
func (c *SidecarDeliveryCache) Blob(root [32]byte, index uint64) (*blocks.BlobSidecar, bool) {
	v, ok := c.blobs.Get(sidecarKey(root, index))
	if !ok {
		return nil, false
	}
	return v.(*blocks.BlobSidecar), true
}

// PutColumn stashes a gossip-delivered data column sidecar.
func (c *SidecarDeliveryCache) PutColumn(sc *blocks.DataColumnSidecar) {
	c.columns.SetDefault(sidecarKey(sc.BlockRoot, sc.Index), sc)
}

// Column returns the cached data column sidecar for the identifier, if any.
func (c *SidecarDeliveryCache) Column(root [32]byte, index uint64) (*blocks.DataColumnSidecar, bool) {
	v, ok := c.columns.Get(sidecarKey(root, index))
	if !ok {
		return nil, false
	}
	return v.(*blocks.DataColumnSidecar), true
}
