package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hazelync/trackdown/internal/catalog"
	"github.com/hazelync/trackdown/internal/download"
	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/repositories"
	"github.com/hazelync/trackdown/internal/search"
	"github.com/hazelync/trackdown/internal/shared"
	"github.com/hazelync/trackdown/internal/tag"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    catalog.Catalog
	worker     *jobs.Worker
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    catalog.Catalog
	Worker     *jobs.Worker
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		worker:     opts.Worker,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, fetchCommand, downloadCommand, statusCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureCatalog builds the Spotify catalog client from configured
// credentials unless one was injected.
func (r *Runner) ensureCatalog() (catalog.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	cat, err := catalog.NewSpotifyCatalog(r.config.Credentials.Spotify)
	if err != nil {
		return nil, fmt.Errorf("%w (set credentials.spotify in %s)", err, r.configPath)
	}

	r.catalog = cat
	return r.catalog, nil
}

// ensureWorker assembles the job worker from config: yt-dlp search and
// fetch, ffprobe validation, and the history recorder when the database
// opens. A missing database downgrades to in-memory history only. The
// returned catalog is the one the worker resolves through, caching
// decorator included.
func (r *Runner) ensureWorker() (*jobs.Worker, catalog.Catalog, error) {
	if r.worker != nil {
		return r.worker, r.catalog, nil
	}

	cat, err := r.ensureCatalog()
	if err != nil {
		return nil, nil, err
	}

	orch := search.NewOrchestrator(search.NewYTDLP(), r.config.Search, r.logger)
	pipeline := download.NewPipeline(
		download.NewYTDLPFetcher(),
		download.NewFFProbe(),
		r.config.Downloads,
		r.logger,
	)
	tagger := tag.NewTagger(nil, r.logger)

	var recorder jobs.Recorder
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("job history disabled", "error", err)
	} else {
		recorder = repositories.NewHistoryRecorder(repositories.NewJobRepository(db))
		cat = catalog.NewCachingCatalog(cat, repositories.NewTrackRepository(db), r.logger)
		r.catalog = cat
	}

	r.worker = jobs.NewWorker(cat, orch, pipeline, tagger, jobs.NewStore(), recorder, r.logger)
	return r.worker, cat, nil
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	return r.db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
