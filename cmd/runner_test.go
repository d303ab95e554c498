package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazelync/trackdown/internal/catalog"
	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
	tu "github.com/hazelync/trackdown/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			cat := &tu.MockCatalog{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Catalog:    cat,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != cat {
				t.Error("expected catalog to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("ensureCatalog", func(t *testing.T) {
		t.Run("returns the injected catalog", func(t *testing.T) {
			cat := &tu.MockCatalog{}
			runner := NewRunner(RunnerOpts{Catalog: cat})

			got, err := runner.ensureCatalog()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != cat {
				t.Error("expected injected catalog")
			}
		})

		t.Run("requires credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			runner.config.Credentials.Spotify = shared.SpotifyConfig{}

			if _, err := runner.ensureCatalog(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("builds from configured credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			runner.config.Credentials.Spotify = shared.SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
			}

			got, err := runner.ensureCatalog()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got == nil {
				t.Error("expected a catalog")
			}
		})
	})

	t.Run("ensureWorker", func(t *testing.T) {
		t.Run("requires credentials", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
			runner.config.Credentials.Spotify = shared.SpotifyConfig{}

			if _, _, err := runner.ensureWorker(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("returns the catalog it wired", func(t *testing.T) {
			dir := t.TempDir()
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{})})
			runner.config.Credentials.Spotify = shared.SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
			}
			runner.config.Database.Path = filepath.Join(dir, "app.db")
			runner.config.Downloads.Dir = dir

			worker, cat, err := runner.ensureWorker()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if runner.db != nil {
				defer runner.db.Close()
			}

			if worker == nil {
				t.Fatal("expected a worker")
			}
			if cat != runner.catalog {
				t.Error("returned catalog differs from the wired one")
			}
			if _, ok := cat.(*catalog.CachingCatalog); !ok {
				t.Errorf("expected the caching decorator, got %T", cat)
			}
		})
	})

	t.Run("summarize", func(t *testing.T) {
		statuses := []jobs.Status{
			{
				Stage:         jobs.StageComplete,
				Track:         models.TrackDescriptor{Name: "Song", Artist: "Artist"},
				ArtifactPath:  "/downloads/song.mp3",
				FileSizeBytes: 5000000,
				BitrateKbps:   256,
			},
			{
				Stage: jobs.StageError,
				Track: models.TrackDescriptor{Name: "Other", Artist: "Artist"},
				Error: "no match found",
			},
		}

		summary := summarize("spotify:album:x", statuses)

		if summary.Succeeded() != 1 || summary.Failed() != 1 {
			t.Errorf("unexpected tally: %d ok, %d failed", summary.Succeeded(), summary.Failed())
		}
		if summary.Results[1].ErrorMessage() != "no match found" {
			t.Errorf("unexpected error message %q", summary.Results[1].ErrorMessage())
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	conf := fmt.Sprintf(`[credentials.spotify]
client_id = ""
client_secret = ""

[downloads]
dir = %q

[database]
path = %q
`, filepath.Join(dir, "downloads"), filepath.Join(dir, "app.db"))
	if err := os.WriteFile(configPath, []byte(conf), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	app := &cli.Command{Commands: []*cli.Command{setupCommand(runner)}}
	if err := app.Run(context.Background(), []string{"trackdown", "setup", "--config", configPath}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "app.db"))
	tu.AssertDirExists(t, filepath.Join(dir, "downloads"))
	if !strings.Contains(output.String(), "Setup complete") {
		t.Errorf("unexpected output %q", output.String())
	}
}
