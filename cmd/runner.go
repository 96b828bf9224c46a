package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/repositories"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/desertthunder/jamroom/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	rooms      *services.RoomService
	search     *services.SearchService
	profile    *services.ProfileService
	playback   *services.PlaybackService
	engine     *tasks.RoomEngine
	db         *sql.DB
	history    *repositories.RecentRoomRepository
	tracks     *repositories.TrackRepository
	cache      *repositories.TrackCache
	httpClient *http.Client
	provider   string
	logger     *log.Logger
	logFile    io.Closer
	output     io.Writer
	jsonOutput bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.Client
	DB         *sql.DB
	HTTPClient *http.Client
	// ProviderURL overrides the provider Web API base.
	ProviderURL string
	Logger      *log.Logger
	Output      io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		provider:   opts.ProviderURL,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.wire(opts.Client)
	if opts.DB != nil {
		r.attachStore(opts.DB)
	}
	return r
}

// wire builds the backend services over client, creating one from config when nil.
func (r *Runner) wire(client *services.Client) {
	if client == nil {
		client = services.NewClient(services.ClientOpts{
			BaseURL:           r.config.Backend.URL,
			SessionToken:      r.config.Credentials.SessionToken,
			RequestsPerSecond: r.config.Backend.RequestsPerSecond,
			Timeout:           r.config.Backend.Timeout(),
			Logger:            r.logger,
		})
	}
	r.client = client
	r.rooms = services.NewRoomService(client)
	r.profile = services.NewProfileService(client, r.config.Backend.LoginEndpoint)
	r.playback = services.NewPlaybackService(client)
	r.rewireSearch()
}

func (r *Runner) rewireSearch() {
	var cacher services.TrackCacher
	if r.cache != nil {
		cacher = r.cache
	}
	r.search = services.NewSearchService(r.client, cacher)
	r.engine = tasks.NewRoomEngine(r.rooms, r.search, r.profile)
}

func (r *Runner) attachStore(db *sql.DB) {
	r.db = db
	r.history = repositories.NewRecentRoomRepository(db)
	r.tracks = repositories.NewTrackRepository(db)
	r.cache = repositories.NewTrackCache(r.tracks)
	r.rewireSearch()
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Before loads configuration from the global flags and wires the services.
//
// A missing config file is not an error; defaults apply until `setup config` creates one.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("log-file"); path != "" {
		logger, f, err := shared.NewFileLogger(path)
		if err != nil {
			return ctx, err
		}
		r.SetLogger(logger)
		r.logFile = f
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	r.jsonOutput = cmd.Bool("json")

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfig(r.configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}
	r.config = config
	r.wire(nil)
	return ctx, nil
}

// After releases the database and log file.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db, r.history, r.tracks, r.cache = nil, nil, nil, nil
	}
	if r.logFile != nil {
		errs = append(errs, r.logFile.Close())
		r.logFile = nil
	}
	return errors.Join(errs...)
}

// store opens the local database on first use.
func (r *Runner) store() error {
	if r.db != nil {
		return nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.attachStore(db)
	return nil
}

// withStore opens the database when possible. History and caching are best effort for commands that do not need them.
func (r *Runner) withStore() {
	if err := r.store(); err != nil {
		r.logger.Warn("local history unavailable", "error", err)
	}
}

// requireSession fails fast when the stored session token is missing or expired.
func (r *Runner) requireSession() error {
	return shared.CheckSessionToken(r.client.SessionToken(), now())
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, searchCommand, roomCommand, playerCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeResult emits data as JSON under --json, otherwise calls plain.
func (r *Runner) writeResult(data any, plain func() error) error {
	if r.jsonOutput {
		return r.writeJSON(data, true)
	}
	return plain()
}
