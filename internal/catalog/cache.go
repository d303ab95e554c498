package catalog

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/models"
)

// TrackCache stores resolved descriptors keyed by catalog id. Implemented
// by the track repository.
type TrackCache interface {
	GetByCatalogID(catalogID string) (*models.CachedTrack, error)
	Create(cached *models.CachedTrack) error
}

// CachingCatalog wraps a [Catalog] with a descriptor cache so repeat
// resolves for the same track skip the upstream API. Cache failures are
// logged and never block resolution.
type CachingCatalog struct {
	inner  Catalog
	cache  TrackCache
	logger *log.Logger
}

// NewCachingCatalog wraps inner with cache-aside track resolution.
func NewCachingCatalog(inner Catalog, cache TrackCache, logger *log.Logger) *CachingCatalog {
	return &CachingCatalog{inner: inner, cache: cache, logger: logger}
}

// Authenticate delegates to the wrapped catalog.
func (c *CachingCatalog) Authenticate(ctx context.Context) error {
	return c.inner.Authenticate(ctx)
}

// ResolveTrack returns the cached descriptor when present, otherwise
// resolves upstream and stores the result.
func (c *CachingCatalog) ResolveTrack(ctx context.Context, urlOrURI string) (models.TrackDescriptor, error) {
	if kind, id, err := ParseResource(urlOrURI); err == nil && kind == "track" {
		if cached, err := c.cache.GetByCatalogID(id); err == nil {
			c.logger.Debug("descriptor cache hit", "track", id)
			return cached.Track(), nil
		}
	}

	desc, err := c.inner.ResolveTrack(ctx, urlOrURI)
	if err != nil {
		return desc, err
	}
	c.store(desc)
	return desc, nil
}

// ResolveCollection resolves upstream and caches every returned descriptor.
// Collections are not cached as units; membership changes upstream.
func (c *CachingCatalog) ResolveCollection(ctx context.Context, urlOrURI string) ([]models.TrackDescriptor, error) {
	tracks, err := c.inner.ResolveCollection(ctx, urlOrURI)
	if err != nil {
		return nil, err
	}
	for _, desc := range tracks {
		c.store(desc)
	}
	return tracks, nil
}

func (c *CachingCatalog) store(desc models.TrackDescriptor) {
	if _, err := c.cache.GetByCatalogID(desc.ID); err == nil {
		return
	}
	if err := c.cache.Create(models.NewCachedTrack(0, desc)); err != nil {
		c.logger.Warn("failed to cache descriptor", "track", desc.ID, "error", err)
	}
}

var _ Catalog = (*CachingCatalog)(nil)
