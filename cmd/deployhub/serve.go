package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"deployhub/internal/config"
	"deployhub/internal/deployment"
	"deployhub/internal/feed"
	"deployhub/internal/history"
	"deployhub/internal/metrics"
	"deployhub/internal/notify"
	"deployhub/internal/server"
	"deployhub/internal/source"
	"deployhub/internal/stats"
	"deployhub/pkg/fileutil"

	"github.com/spf13/cobra"
)

// ShutdownTimeout bounds how long in-flight requests may take after a signal
const ShutdownTimeout = 10 * time.Second

var (
	configFile string
	logFile    string
	logLevel   string
	dbPath     string
	host       string
	port       int
	interval   time.Duration
	capacity   int
	testMode   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the HTTP server that renders the deployment dashboard and JSON API.

The initial records are loaded from the seed set (or the SQLite history when --db
is given), then a synthetic deployment is generated every --interval.`,
	RunE: runServe,
}

func init() {
	// Flags for serve command. Zero values fall back to the configuration file.
	serveCmd.Flags().StringVarP(&configFile, "config", "c", getEnvOrDefault("DEPLOYHUB_CONFIG_FILE", ""), "Path to deployhub.yaml configuration file")
	serveCmd.Flags().StringVar(&logFile, "log", getEnvOrDefault("DEPLOYHUB_LOG_FILE", ""), "Also write logs to this file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", getEnvOrDefault("DEPLOYHUB_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&dbPath, "db", getEnvOrDefault("DEPLOYHUB_DB_PATH", ""), "Path to SQLite history database (optional)")
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("DEPLOYHUB_HOST", ""), "Host to bind to")
	serveCmd.Flags().IntVarP(&port, "port", "p", getEnvOrDefaultInt("DEPLOYHUB_PORT", 0), "Port to listen on")
	serveCmd.Flags().DurationVar(&interval, "interval", getEnvOrDefaultDuration("DEPLOYHUB_INTERVAL", 0), "Interval between synthetic deployments")
	serveCmd.Flags().IntVar(&capacity, "capacity", getEnvOrDefaultInt("DEPLOYHUB_CAPACITY", 0), "Number of deployments kept in the feed")
	serveCmd.Flags().BoolVar(&testMode, "test-mode", os.Getenv("DEPLOYHUB_TEST_MODE") == "1", "Enable test mode (no rate limiting)")
}

func runServe(cmd *cobra.Command, args []string) error {
	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}

	// Set up logging
	logger, logFileHandle, err := setupLogging(logFile, level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if logFileHandle != nil {
		defer logFileHandle.Close()
	}

	logger.Info("Starting deployhub", "version", version)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return err
	}

	f, err := feed.New(cfg.Feed.Capacity)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}

	center := notify.NewCenter(notify.DefaultCapacity)
	center.Seed(time.Now())

	collector := metrics.New()

	gen := feed.NewGenerator()
	gen.Usernames = cfg.Generator.Usernames
	gen.Projects = cfg.Generator.Projects

	sim := feed.NewSimulator(f, gen, cfg.Feed.Interval, logger)
	sim.OnRecord(collector.Observe)
	sim.OnRecord(center.Observe)
	sim.OnRecord(func(ctx context.Context, r deployment.Record) {
		collector.Update(stats.Compute(f.Snapshot()))
	})

	// Pick the record source
	var src source.Source
	var hist *history.History
	if cfg.History.DBPath != "" {
		hist, err = openHistory(cmd.Context(), cfg.History.DBPath, cfg.Feed.Capacity, logger)
		if err != nil {
			logger.Error("Failed to initialize history database", "error", err)
			return err
		}
		defer hist.Close()

		sim.OnRecord(func(ctx context.Context, r deployment.Record) {
			if err := hist.Record(ctx, r); err != nil {
				logger.Error("Failed to record deployment history", "error", err, "id", r.ID)
			}
		})
		src = hist
	} else {
		src = &source.Static{Delay: cfg.Feed.SeedDelay, Now: time.Now}
	}

	srv, err := server.NewServer(f, center, collector, logger, testMode)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		return err
	}
	srv.ChartSize = cfg.ChartSize()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the initial records, then start generating. Generated records are
	// only ever prepended after the load so the seed never overwrites them.
	var loaderWg sync.WaitGroup
	loaderWg.Add(1)
	go func() {
		defer loaderWg.Done()

		records, err := src.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to load deployments, starting with an empty feed", "error", err)
		}
		f.Reset(records)
		srv.SetLoaded(true)
		collector.Update(stats.Compute(f.Snapshot()))
		logger.Info("Deployments loaded", "count", f.Len())

		sim.Start(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Address())
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down server", "error", err)
	}
	loaderWg.Wait()
	sim.Stop()

	logger.Info("Server stopped")
	return serveErr
}

// loadConfig resolves the configuration file and applies flag overrides
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, path, err := config.Resolve(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if path == "" {
		logger.Info("No configuration file found, using defaults", "searched", fileutil.DefaultConfigPaths(config.FileName))
	} else {
		logger.Info("Configuration loaded", "config", path)
	}

	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if interval != 0 {
		cfg.Feed.Interval = interval
	}
	if capacity != 0 {
		cfg.Feed.Capacity = capacity
	}
	if dbPath != "" {
		cfg.History.DBPath = dbPath
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(problems, "\n"))
	}
	return cfg, nil
}

// openHistory opens the history database, seeding it when empty
func openHistory(ctx context.Context, path string, limit int, logger *slog.Logger) (*history.History, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, err
	}

	logger.Info("Initializing history database", "db", path)
	hist, err := history.NewHistory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	hist.Limit = limit

	count, err := hist.Count(ctx)
	if err != nil {
		hist.Close()
		return nil, err
	}
	if count == 0 {
		if err := hist.RecordAll(ctx, source.Seed(time.Now())); err != nil {
			hist.Close()
			return nil, fmt.Errorf("failed to seed history database: %w", err)
		}
		logger.Info("Seeded empty history database")
	}

	return hist, nil
}

// setupLogging configures slog for console and optional file logging
// Returns both the logger and the file handle (caller must close the file)
func setupLogging(logPath string, level slog.Level) (*slog.Logger, *os.File, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logPath != "" {
		if err := fileutil.EnsureParentDir(logPath); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		// Open log file with secure permissions
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		// Create multi-writer to log to both file and console
		out = io.MultiWriter(os.Stdout, file)
	}

	// Create JSON handler for structured logging
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, file, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Helper functions for environment variables
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
