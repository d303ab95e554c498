package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const probeTimeout = 15 * time.Second

// FFProbeOption configures the CLI prober.
type FFProbeOption func(*FFProbe)

// WithProbeBinary overrides the default binary name.
func WithProbeBinary(binary string) FFProbeOption {
	return func(p *FFProbe) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// FFProbe implements [Prober] over the ffprobe command line tool.
type FFProbe struct {
	binary string
}

// NewFFProbe constructs a prober using defaults.
func NewFFProbe(opts ...FFProbeOption) *FFProbe {
	prober := &FFProbe{binary: "ffprobe"}
	for _, opt := range opts {
		opt(prober)
	}
	return prober
}

type probeFormat struct {
	Format struct {
		BitRate  string `json:"bit_rate"`
		Duration string `json:"duration"`
	} `json:"format"`
}

// BitrateKbps measures the container bitrate in kilobits per second.
func (p *FFProbe) BitrateKbps(ctx context.Context, path string) (int, error) {
	format, err := p.probe(ctx, path)
	if err != nil {
		return 0, err
	}

	bps, err := strconv.Atoi(format.Format.BitRate)
	if err != nil || bps <= 0 {
		return 0, fmt.Errorf("no bitrate reported for %s", path)
	}
	return bps / 1000, nil
}

// DurationSec measures the container duration in seconds.
func (p *FFProbe) DurationSec(ctx context.Context, path string) (float64, error) {
	format, err := p.probe(ctx, path)
	if err != nil {
		return 0, err
	}

	secs, err := strconv.ParseFloat(format.Format.Duration, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("no duration reported for %s", path)
	}
	return secs, nil
}

func (p *FFProbe) probe(ctx context.Context, path string) (*probeFormat, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=bit_rate,duration",
		"-of", "json",
		path,
	}

	cmd := commandContext(ctx, p.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	var format probeFormat
	if err := json.Unmarshal(stdout.Bytes(), &format); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &format, nil
}

var _ Prober = (*FFProbe)(nil)
