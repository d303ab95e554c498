package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var commandContext = exec.CommandContext

const defaultSearchTimeout = 30 * time.Second

// YTDLPOption configures the CLI provider.
type YTDLPOption func(*YTDLP)

// WithBinary overrides the default binary name.
func WithBinary(binary string) YTDLPOption {
	return func(p *YTDLP) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// WithSearchTimeout overrides the per-call timeout.
func WithSearchTimeout(timeout time.Duration) YTDLPOption {
	return func(p *YTDLP) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// YTDLP implements [Provider] over the yt-dlp command line tool, using its
// flat search mode so no media is touched during discovery.
type YTDLP struct {
	binary  string
	timeout time.Duration
}

// NewYTDLP constructs a provider using defaults.
func NewYTDLP(opts ...YTDLPOption) *YTDLP {
	provider := &YTDLP{binary: "yt-dlp", timeout: defaultSearchTimeout}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Search runs a flat yt-dlp search and parses one JSON entry per line.
// No results is an empty slice, not an error.
func (p *YTDLP) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		fmt.Sprintf("ytsearch%d:%s", maxResults, query),
		"--dump-json",
		"--flat-playlist",
		"--no-warnings",
		"--skip-download",
	}

	cmd := commandContext(ctx, p.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	results := parseEntries(&stdout)

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("search timed out after %s: %w", p.timeout, ctx.Err())
		}
		if len(results) > 0 {
			return results, nil
		}
		return nil, fmt.Errorf("yt-dlp search failed: %w: %s", runErr, bytes.TrimSpace(stderr.Bytes()))
	}

	return results, nil
}

// parseEntries decodes the newline-delimited JSON emitted by --dump-json,
// skipping lines that do not parse.
func parseEntries(stdout *bytes.Buffer) []Result {
	results := []Result{}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var entry struct {
			ID        string  `json:"id"`
			Title     string  `json:"title"`
			URL       string  `json:"url"`
			Duration  float64 `json:"duration"`
			ViewCount int64   `json:"view_count"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.ID == "" && entry.URL == "" {
			continue
		}

		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}

		results = append(results, Result{
			SourceURL:   url,
			Title:       entry.Title,
			DurationSec: int(entry.Duration),
			Popularity:  entry.ViewCount,
		})
	}

	return results
}

var _ Provider = (*YTDLP)(nil)
