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
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/rateroom/internal/bolt"
	"github.com/rpggio/rateroom/internal/config"
	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/janitor"
	"github.com/rpggio/rateroom/internal/logging"
	"github.com/rpggio/rateroom/internal/mcp"
	"github.com/rpggio/rateroom/internal/sqlite"
	"github.com/rpggio/rateroom/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := logging.OpenFile(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := logging.New(logWriter, cfg.Log.Level)

	repos, err := openStore(cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	activitySvc := activity.NewService(repos.activity, logger)
	accessSvc := access.NewService(repos.tokens, cfg.Auth.HostPassword, cfg.Auth.TokenTTL, logger)
	sessionSvc := session.NewService(repos.sessions, activitySvc, session.Settings{
		AuthorizedActors:          cfg.Session.AuthorizedActors,
		LiveTTL:                   cfg.Session.LiveTTL,
		DefaultExpectedAttendance: cfg.Session.DefaultExpectedAttendance,
		DefaultTimer:              cfg.Session.DefaultTimer,
	}, logger)

	if cfg.Auth.Enabled && cfg.Auth.HostPassword == "" {
		logger.Warn("auth enabled without a host password; host routes are unreachable")
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions: sessionSvc,
			Activity: activitySvc,
		},
		Verifier:      accessSvc,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Version:       version,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go janitor.New(cfg.Session.PurgeInterval, logger,
		janitor.Target{Name: "sessions", Purger: sessionSvc},
		janitor.Target{Name: "tokens", Purger: accessSvc},
	).Run(ctx)

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(ctx, logger, mcpServer)
		return
	}

	var verifier transport.TokenVerifier
	if cfg.Auth.Enabled {
		verifier = accessSvc
	}
	services := transport.Services{Sessions: sessionSvc, Access: accessSvc, Activity: activitySvc}
	if err := runHTTPMode(ctx, logger, services, verifier, mcpServer, cfg.Server.Host, cfg.Server.Port); err != nil {
		logger.Error("server error", "error", err)
		stop()
		repos.close()
		os.Exit(1)
	}
}

type repositories struct {
	sessions session.SessionRepository
	tokens   access.TokenRepository
	activity activity.Repository
	close    func() error
}

func openStore(cfg config.StoreConfig) (*repositories, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, fmt.Errorf("prepare store path: %w", err)
	}

	switch cfg.Driver {
	case "bolt":
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &repositories{
			sessions: store.Sessions(),
			tokens:   store.Tokens(),
			activity: store.Activity(),
			close:    store.Close,
		}, nil
	case "sqlite":
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &repositories{
			sessions: sqlite.NewSessionRepository(db),
			tokens:   sqlite.NewTokenRepository(db),
			activity: sqlite.NewActivityRepository(db),
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func runHTTPMode(
	ctx context.Context,
	logger *slog.Logger,
	services transport.Services,
	verifier transport.TokenVerifier,
	mcpServer *sdkmcp.Server,
	host string,
	port int,
) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := transport.NewServer(services, transport.AuthMiddleware(verifier), logger)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return serveHTTP(ctx, logger, httpServer)
}

// serveHTTP runs srv until ctx is canceled, then shuts it down. A listener
// failure is returned instead of waiting for a signal that may never come.
func serveHTTP(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
