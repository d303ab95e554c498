package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/hazelync/trackdown/internal/shared"
)

func stubCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "DOWNLOAD_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("DOWNLOAD_HELPER_MODE") {
	case "success":
	case "fail":
		fmt.Fprintln(os.Stderr, "ERROR: video unavailable")
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
	case "probe":
		fmt.Println(`{"format": {"bit_rate": "192000", "duration": "213.5"}}`)
	case "probe-empty":
		fmt.Println(`{"format": {}}`)
	}
	os.Exit(0)
}

func TestYTDLPFetcher(t *testing.T) {
	t.Run("builds the extraction command", func(t *testing.T) {
		var args []string
		stubCommand(t, "success", &args)

		err := NewYTDLPFetcher().Fetch(context.Background(), "https://youtube.example/watch?v=abc", "/tmp/out.%(ext)s")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		joined := strings.Join(args, " ")
		for _, want := range []string{"-x", "--audio-format mp3", "-o /tmp/out.%(ext)s", "https://youtube.example/watch?v=abc"} {
			if !strings.Contains(joined, want) {
				t.Errorf("expected args to contain %q, got %v", want, args)
			}
		}
	})

	t.Run("requires a source url", func(t *testing.T) {
		err := NewYTDLPFetcher().Fetch(context.Background(), "", "/tmp/out.%(ext)s")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("nonzero exit maps to ErrFetchFailed", func(t *testing.T) {
		stubCommand(t, "fail", nil)

		err := NewYTDLPFetcher().Fetch(context.Background(), "https://youtube.example/watch?v=gone", "/tmp/out.%(ext)s")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "video unavailable") {
			t.Errorf("expected stderr in error, got %v", err)
		}
	})

	t.Run("deadline expiry maps to ErrFetchTimeout", func(t *testing.T) {
		stubCommand(t, "hang", nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := NewYTDLPFetcher().Fetch(ctx, "https://youtube.example/watch?v=slow", "/tmp/out.%(ext)s")
		if !errors.Is(err, shared.ErrFetchTimeout) {
			t.Errorf("expected ErrFetchTimeout, got %v", err)
		}
	})

	t.Run("binary override", func(t *testing.T) {
		fetcher := NewYTDLPFetcher(WithBinary("/opt/yt-dlp"))
		if fetcher.binary != "/opt/yt-dlp" {
			t.Errorf("binary override not applied: %q", fetcher.binary)
		}
	})
}

func TestFFProbe(t *testing.T) {
	t.Run("parses bitrate and duration", func(t *testing.T) {
		stubCommand(t, "probe", nil)
		prober := NewFFProbe()

		bitrate, err := prober.BitrateKbps(context.Background(), "/tmp/file.mp3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if bitrate != 192 {
			t.Errorf("expected 192 kbps, got %d", bitrate)
		}

		duration, err := prober.DurationSec(context.Background(), "/tmp/file.mp3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if duration != 213.5 {
			t.Errorf("expected 213.5s, got %f", duration)
		}
	})

	t.Run("missing fields are errors", func(t *testing.T) {
		stubCommand(t, "probe-empty", nil)
		prober := NewFFProbe()

		if _, err := prober.BitrateKbps(context.Background(), "/tmp/file.mp3"); err == nil {
			t.Error("expected error for missing bitrate")
		}
		if _, err := prober.DurationSec(context.Background(), "/tmp/file.mp3"); err == nil {
			t.Error("expected error for missing duration")
		}
	})

	t.Run("process failure propagates", func(t *testing.T) {
		stubCommand(t, "fail", nil)
		prober := NewFFProbe()

		if _, err := prober.BitrateKbps(context.Background(), "/tmp/file.mp3"); err == nil {
			t.Error("expected error for failed probe")
		}
	})
}
