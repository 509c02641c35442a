package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/browser"
	"github.com/gorilla/handlers"

	"hrzones/internal/analysis"
	"hrzones/internal/api"
	"hrzones/internal/config"
	"hrzones/internal/service"
	"hrzones/internal/source"
	"hrzones/internal/store"
	"hrzones/internal/tui"
)

const usage = `Usage:
  hrzones                 open the terminal dashboard
  hrzones serve [flags]   serve the HTTP API
  hrzones refresh         refresh the activity cache from the source
  hrzones import FILE...  import FIT files into the activity cache
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// app holds everything the subcommands share
type app struct {
	cfg      *config.Config
	db       *store.DB
	logger   *slog.Logger
	cached   *service.CachedSource // nil when offline
	pipeline *service.Pipeline
	period   analysis.TimePeriod
}

func run(args []string) error {
	cmd := ""
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "tui":
		return runTUI()
	case "serve":
		return runServe(args)
	case "refresh":
		return runRefresh()
	case "import":
		return runImport(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// setup loads config and opens the cache. It returns a nil app when the
// user has been told to edit the config first.
func setup(logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Set source.url to the activity API and athlete.max_hr to your max heart rate.")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil, nil
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{cfg: cfg, db: db, logger: logger}
	a.period, _ = analysis.FindPeriod(cfg.Display.DefaultPeriod)

	var src service.ActivitySource
	if cfg.Source.Offline {
		src = service.NewStoreSource(db)
	} else {
		client := source.NewClient(source.Config{
			BaseURL: cfg.Source.URL,
			Token:   cfg.Source.Token,
			Timeout: cfg.Source.Timeout(),
		})
		a.cached = service.NewCachedSource(client, db, logger)
		src = a.cached
	}

	registry := service.NewZoneRegistry(cfg.Athlete.Settings())
	a.pipeline = service.NewPipeline(src, registry, cfg.Source.Timeout())
	return a, nil
}

// saveSettings persists accepted zone settings to the config file
func (a *app) saveSettings(s analysis.Settings) error {
	a.cfg.Athlete = config.FromSettings(s)
	return config.Save(a.cfg)
}

func runTUI() error {
	logger, closeLog, err := fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := setup(logger)
	if a == nil || err != nil {
		return err
	}
	defer a.db.Close()

	orch := service.NewOrchestrator(a.pipeline, logger)
	model := tui.NewApp(tui.Options{
		Orchestrator:  orch,
		LastRefresh:   a.db.LastRefresh,
		SaveSettings:  a.saveSettings,
		DefaultPeriod: a.period,
		Offline:       a.cfg.Source.Offline,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (defaults to server.address)")
	open := fs.Bool("open", false, "open the zone chart in a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := stderrLogger()
	a, err := setup(logger)
	if a == nil || err != nil {
		return err
	}
	defer a.db.Close()

	if *addr == "" {
		*addr = a.cfg.Server.Address
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cached != nil && a.cfg.Server.RefreshSchedule != "" {
		refresher, err := service.NewRefresher(a.cached, a.cfg.Server.RefreshSchedule, a.cfg.Source.Timeout(), logger)
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop(context.Background())
	}

	h := api.NewHandler(a.pipeline, logger,
		api.WithDefaultPeriod(a.period),
		api.WithSettingsHook(a.saveSettings),
	)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handlers.LoggingHandler(os.Stdout, h.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	if *open {
		url := "http://" + browseHost(*addr) + "/v1/zones/chart"
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("opening browser failed", "url", url, "err", err)
		}
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}

func runRefresh() error {
	logger := stderrLogger()
	a, err := setup(logger)
	if a == nil || err != nil {
		return err
	}
	defer a.db.Close()

	if a.cached == nil {
		return errors.New("source.offline is set; nothing to refresh")
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout(a.cfg))
	defer cancel()

	n, err := a.cached.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing activities: %w", err)
	}
	fmt.Printf("Refreshed %d activities\n", n)
	return nil
}

func runImport(paths []string) error {
	if len(paths) == 0 {
		return errors.New("import needs at least one FIT file")
	}

	logger := stderrLogger()
	a, err := setup(logger)
	if a == nil || err != nil {
		return err
	}
	defer a.db.Close()

	result := service.NewImporter(a.db, logger).ImportFiles(context.Background(), paths)
	fmt.Printf("Imported %d of %d files\n", len(result.Imported), len(paths))
	for _, err := range result.Errors {
		fmt.Printf("  %v\n", err)
	}
	if len(result.Errors) > 0 && len(result.Imported) == 0 {
		return errors.New("no files imported")
	}
	return nil
}

func stderrLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// fileLogger logs to ~/.hrzones/hrzones.log since the TUI owns stdout
func fileLogger() (*slog.Logger, func(), error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "hrzones.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

func fetchTimeout(cfg *config.Config) time.Duration {
	if t := cfg.Source.Timeout(); t > 0 {
		return t
	}
	return service.DefaultFetchTimeout
}

// browseHost turns a listen address like ":8080" into a dialable host
func browseHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
