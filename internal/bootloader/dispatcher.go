package bootloader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/i2y/mcpboot/configs"
	"github.com/i2y/mcpboot/internal/adapter/inbound/mcphttp"
	"github.com/i2y/mcpboot/internal/adapter/inbound/mcpserver"
	"github.com/i2y/mcpboot/internal/adapter/outbound/middleware"
)

// Dispatcher runs the MCP server on the configured transport.
type Dispatcher struct {
	cfg         *configs.Config
	server      *mcpserver.Server
	admin       *mcphttp.Handlers
	middlewares middleware.Repository
	logger      *slog.Logger

	stdin  io.Reader
	stdout io.Writer
}

// NewDispatcher creates a Dispatcher serving stdio on the process streams.
func NewDispatcher(
	cfg *configs.Config,
	server *mcpserver.Server,
	admin *mcphttp.Handlers,
	middlewares middleware.Repository,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		server:      server,
		admin:       admin,
		middlewares: middlewares,
		logger:      logger.With("component", "dispatcher"),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
	}
}

// CanServe reports whether the process was started to serve MCP.
func (d *Dispatcher) CanServe(cfg *configs.Config) bool {
	return cfg.CanServeMCP()
}

// Serve blocks until ctx is done. Listener failures are logged, not returned.
func (d *Dispatcher) Serve(ctx context.Context) {
	switch d.cfg.TransportKind() {
	case configs.TransportStdio:
		if err := d.server.ServeStdio(ctx, d.stdin, d.stdout); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("STDIO server error", slog.Any("error", err))
		}
	default:
		d.serveHTTP(ctx)
	}
}

// Handler returns the HTTP handler of the configured HTTP transport.
func (d *Dispatcher) Handler() http.Handler {
	mws := d.middlewares.All()
	if d.cfg.TransportKind() == configs.TransportStream {
		return d.server.StreamableHandler(mws)
	}
	return d.server.SSEHandler("http://"+d.cfg.Addr(), mws)
}

// AdminHandler returns the mux of the admin endpoints.
func (d *Dispatcher) AdminHandler() http.Handler {
	mux := http.NewServeMux()
	d.admin.RegisterAdminRoutes(mux)
	return mux
}

func (d *Dispatcher) serveHTTP(ctx context.Context) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	servers := []*http.Server{d.newHTTPServer(d.cfg.Addr(), d.Handler())}
	if d.cfg.AdminAddr != "" {
		servers = append(servers, d.newHTTPServer(d.cfg.AdminAddr, d.AdminHandler()))
	}

	for _, srv := range servers {
		go func() {
			d.logger.Info("HTTP server starting.", slog.String("address", srv.Addr), slog.String("transport", d.cfg.TransportKind()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("HTTP server failed.", slog.String("address", srv.Addr), slog.Any("error", err))
				stop()
			}
		}()
	}

	<-ctx.Done()

	d.logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Error("HTTP server graceful shutdown failed.", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}
	d.logger.Info("Servers shut down.")
}

func (d *Dispatcher) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: d.cfg.ServerReadTimeout,
		IdleTimeout:       d.cfg.ServerIdleTimeout,
	}
}
