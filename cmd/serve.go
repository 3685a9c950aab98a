package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/handlers"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/mcp"
	"github.com/ekaya-inc/b1-query-assistant/pkg/metrics"
	"github.com/ekaya-inc/b1-query-assistant/pkg/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `serve starts the HTTP API: POST /query, POST /mcp, GET /health, GET /ping and GET /metrics.
It shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	app.checkDatasource(ctx)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting b1-query-assistant",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newRouter registers every endpoint and wraps the mux in the middleware chain.
func newRouter(app *application) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(app.cfg, app.queryService.ExecutionEnabled(), app.logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(app.queryService, app.logger).RegisterRoutes(mux)

	if app.cfg.MCP.Enabled {
		mcpServer := mcp.NewQueryServer(app.cfg.Version, app.queryService, app.logger)
		handlers.NewMCPHandler(mcpServer, app.logger).RegisterRoutes(mux)
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.CORS(app.cfg.CORSAllowedOrigins),
		metrics.HTTPMiddleware,
		middleware.RequestLogger(app.logger),
	)
}
