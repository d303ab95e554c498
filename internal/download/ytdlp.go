package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/hazelync/trackdown/internal/shared"
)

var commandContext = exec.CommandContext

// YTDLPOption configures the CLI fetcher.
type YTDLPOption func(*YTDLPFetcher)

// WithBinary overrides the default binary name.
func WithBinary(binary string) YTDLPOption {
	return func(f *YTDLPFetcher) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// YTDLPFetcher implements [Fetcher] over the yt-dlp command line tool,
// extracting the best available audio stream as mp3.
type YTDLPFetcher struct {
	binary string
}

// NewYTDLPFetcher constructs a fetcher using defaults.
func NewYTDLPFetcher(opts ...YTDLPOption) *YTDLPFetcher {
	fetcher := &YTDLPFetcher{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads and extracts audio for a single source URL. The caller
// bounds the call with a context deadline; deadline expiry is reported as
// ErrFetchTimeout, any other nonzero exit as ErrFetchFailed.
func (f *YTDLPFetcher) Fetch(ctx context.Context, sourceURL, outputTemplate string) error {
	if sourceURL == "" {
		return fmt.Errorf("%w: source url required", shared.ErrInvalidArgument)
	}

	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-warnings",
		"-o", outputTemplate,
		sourceURL,
	}

	cmd := commandContext(ctx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", shared.ErrFetchTimeout, sourceURL)
		}
		return fmt.Errorf("%w: %v: %s", shared.ErrFetchFailed, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return nil
}

var _ Fetcher = (*YTDLPFetcher)(nil)
