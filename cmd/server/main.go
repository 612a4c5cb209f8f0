// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/tubebox/internal/api/connect"
	"github.com/osa030/tubebox/internal/api/ws"
	"github.com/osa030/tubebox/internal/app/catalog"
	"github.com/osa030/tubebox/internal/app/filter"
	"github.com/osa030/tubebox/internal/app/session"
	"github.com/osa030/tubebox/internal/domain/media"
	"github.com/osa030/tubebox/internal/infra/config"
	"github.com/osa030/tubebox/internal/infra/lastfm"
	"github.com/osa030/tubebox/internal/infra/logger"
	"github.com/osa030/tubebox/internal/infra/mpv"
	"github.com/osa030/tubebox/internal/infra/spotify"
	"github.com/osa030/tubebox/internal/infra/storage"
	"github.com/osa030/tubebox/internal/infra/youtube"
)

var (
	app        = kingpin.New("tubebox-server", "Headless YouTube playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").Envar("TUBEBOX_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	logJSON    = app.Flag("log-json", "Write JSON log lines to stdout").Bool()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Level: "info", File: *logfile, JSON: *logJSON}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		_ = closeLog()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	ctx := context.Background()

	cat, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Warn().Msgf("Failed to close storage: %v", err)
		}
	}()

	sessionMgr, err := session.NewManager(cfg, newPlayer(cfg), store, cat)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}

	// Router: health check and websocket feed, then the RPC services
	feed := ws.NewServer(sessionMgr, cfg.Server.AllowedOrigins)
	router := feed.Router()

	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(apiconnect.NewPlayerService(sessionMgr))
	controlPath, controlHandler := apiconnect.NewControlServiceHandler(
		apiconnect.NewControlService(sessionMgr),
		connect.WithInterceptors(apiconnect.NewControlTokenInterceptor(cfg)),
	)
	router.Mount(playerPath, playerHandler)
	router.Mount(controlPath, controlHandler)
	if cfg.Server.ControlToken == "" {
		zlog.Warn().Msg("Control token not configured, control service is open to everyone")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	if err := sessionMgr.Start(ctx); err != nil {
		sessionMgr.Close()
		return errors.Wrap(err, "failed to start session")
	}

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the listener a moment before running hooks that may connect to it
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so open feeds and streams end
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// newCatalog creates the API clients the configured providers need and
// builds the catalog from them.
func newCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	var yt catalog.YouTubeClient
	if cfg.YouTube.APIKey != "" {
		client, err := youtube.New(youtube.Config{
			APIKey:  cfg.YouTube.APIKey,
			BaseURL: cfg.YouTube.BaseURL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create YouTube client")
		}
		yt = client
	}

	var sp catalog.SpotifyClient
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		sp = client
	}

	var lf catalog.LastFmClient
	if cfg.LastFm.APIKey != "" {
		client, err := lastfm.New(lastfm.Config{
			APIKey:  cfg.LastFm.APIKey,
			BaseURL: cfg.LastFm.BaseURL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Last.fm client")
		}
		lf = client
	}

	cat, err := catalog.NewFromConfig(cfg, catalog.Clients{YouTube: yt, Spotify: sp, LastFm: lf})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create catalog")
	}
	zlog.Info().Msgf("Catalog providers: %v", cat.Names())
	return cat, nil
}

// newPlayer returns the configured player backend, or nil when the server
// runs headless.
func newPlayer(cfg *config.Config) media.Player {
	if !cfg.App.Interactive() || cfg.Player.Backend != config.BackendMpv {
		zlog.Info().Msgf("No player backend: headless=%v backend=%s", cfg.App.Headless, cfg.Player.Backend)
		return nil
	}
	return mpv.New(mpv.Config{
		Path:        cfg.Player.MpvPath,
		SocketPath:  cfg.Player.SocketPath,
		URLTemplate: cfg.Player.URLTemplate,
		Args:        cfg.Player.Args,
	})
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validateFilterConfig validates filter configurations.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			return errors.Newf("unknown filter: %s", filterName)
		}

		if err := factory().ValidateConfig(filterCfg.Settings); err != nil {
			return errors.Wrapf(err, "filter %s", filterName)
		}
	}

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
