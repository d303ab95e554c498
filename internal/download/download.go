// package download acquires, validates, and batches audio artifacts.
package download

import (
	"context"
)

// Fetcher abstracts the download backend. The output template uses the
// backend's placeholder syntax for the file extension; the pipeline decides
// the final canonical path.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, outputTemplate string) error
}

// Prober abstracts audio metrics measurement. Both methods return an error
// when the value cannot be measured; callers fall back to estimates.
type Prober interface {
	BitrateKbps(ctx context.Context, path string) (int, error)
	DurationSec(ctx context.Context, path string) (float64, error)
}
