// package catalog resolves streaming-catalog links into track descriptors.
package catalog

import (
	"context"

	"github.com/hazelync/trackdown/internal/models"
)

// Catalog abstracts a streaming metadata provider. Implementations resolve
// shared links or URIs into descriptors suitable for search and download.
type Catalog interface {
	// Authenticate obtains API credentials. Must be called before the
	// resolve methods.
	Authenticate(ctx context.Context) error

	// ResolveTrack resolves a single track link or URI into a descriptor.
	ResolveTrack(ctx context.Context, urlOrURI string) (models.TrackDescriptor, error)

	// ResolveCollection resolves a playlist or album link into the
	// descriptors of its tracks, in catalog order.
	ResolveCollection(ctx context.Context, urlOrURI string) ([]models.TrackDescriptor, error)
}
