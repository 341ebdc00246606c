package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/db"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/metrics"
	"github.com/danielhkuo/praise/middleware"
	"github.com/danielhkuo/praise/router"
	"github.com/danielhkuo/praise/settings"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database; driver names match DATABASE_TYPE
	dbConn, err := sql.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	if cfg.DatabaseType == "sqlite" {
		// SQLite allows one writer
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	store := db.NewStore(dbConn)
	if err := seedSettings(store, cfg.SettingsFile); err != nil {
		slog.Error("settings seed failed", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		slog.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	svc := lifecycle.NewService(store,
		lifecycle.WithMetrics(m),
		lifecycle.WithCloseRetries(cfg.CloseRetries),
	)

	// Create router
	mux := router.NewRouter(svc, cfg, registry)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "global_admin_key_scope", auth.GlobalScope)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// seedSettings writes the built-in defaults without touching existing rows,
// then applies the settings file, which overwrites.
func seedSettings(store *db.Store, path string) error {
	ctx := context.Background()

	defaults, err := settings.Defaults()
	if err != nil {
		return err
	}
	if err := store.SeedSettings(ctx, defaults, false); err != nil {
		return err
	}

	if path == "" {
		return nil
	}
	rows, err := settings.ReadFile(path)
	if err != nil {
		return err
	}
	if err := store.SeedSettings(ctx, rows, true); err != nil {
		return err
	}
	slog.Info("settings file applied", "path", path, "rows", len(rows))
	return nil
}
