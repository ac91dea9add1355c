// Package bootloader wires the tool discovery pipeline, the registry and the
// MCP server into one fx application.
package bootloader

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/i2y/mcpboot/configs"
	"github.com/i2y/mcpboot/internal/adapter/inbound/mcphttp"
	"github.com/i2y/mcpboot/internal/adapter/inbound/mcpserver"
	"github.com/i2y/mcpboot/internal/adapter/outbound/catalog"
	"github.com/i2y/mcpboot/internal/adapter/outbound/container"
	"github.com/i2y/mcpboot/internal/adapter/outbound/memrepo"
	"github.com/i2y/mcpboot/internal/adapter/outbound/middleware"
	"github.com/i2y/mcpboot/internal/adapter/outbound/reporter"
	"github.com/i2y/mcpboot/internal/adapter/outbound/schemamapper"
	"github.com/i2y/mcpboot/internal/telemetry"
	"github.com/i2y/mcpboot/internal/usecase"
)

// Module provides the singletons of an MCP application.
//
// Tool types are added to the *catalog.Catalog and their constructors to the
// *container.Factory by fx.Invoke options given to New. The catalog is
// scanned when the application starts; a discovery error aborts the start.
var Module = fx.Module("mcpboot",
	fx.Provide(
		fx.Annotate(catalog.New, fx.As(fx.Self()), fx.As(new(usecase.AttributeReader))),
		catalog.NewScanner,
		fx.Annotate(newRegistry, fx.As(fx.Self()), fx.As(new(usecase.ToolRegistry))),
		fx.Annotate(newSchemaMapper, fx.As(fx.Self()), fx.As(new(usecase.SchemaMapper))),
		fx.Annotate(container.New, fx.As(fx.Self()), fx.As(new(usecase.ObjectFactory))),
		fx.Annotate(reporter.New, fx.As(fx.Self()), fx.As(new(usecase.ErrorReporter))),
		fx.Annotate(telemetry.NewToolObserver, fx.As(new(usecase.InvocationObserver))),
		fx.Annotate(middleware.NewManager, fx.As(fx.Self()), fx.As(new(middleware.Registry)), fx.As(new(middleware.Repository))),
		newMeter,
		newTracer,
		usecase.NewAttributesParser,
		newToolFactory,
		usecase.NewToolsLocator,
		usecase.NewServeToolsUseCase,
		usecase.NewInvokeToolUseCase,
		newMCPServer,
		mcphttp.NewHandlers,
		NewDispatcher,
	),
	fx.Invoke(registerTelemetry, registerDiscovery),
)

// New builds the application. opts typically register tools and middlewares.
func New(cfg *configs.Config, logger *slog.Logger, opts ...fx.Option) *fx.App {
	return fx.New(Options(cfg, logger, opts...))
}

// Options returns Module bound to cfg and logger, followed by opts.
func Options(cfg *configs.Config, logger *slog.Logger, opts ...fx.Option) fx.Option {
	return fx.Options(
		fx.Supply(cfg, logger),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
		Module,
		fx.Options(opts...),
	)
}

func newRegistry(cfg *configs.Config, logger *slog.Logger) *memrepo.Registry {
	return memrepo.NewRegistry(logger, cfg.DisabledTools...)
}

func newSchemaMapper(cfg *configs.Config, types *catalog.Catalog, logger *slog.Logger) *schemamapper.Mapper {
	return schemamapper.New(logger,
		schemamapper.WithCache(cfg.IsProduction()),
		schemamapper.WithTypeResolver(types),
	)
}

func newMeter() metric.Meter {
	return otel.Meter(telemetry.InstrumentationName)
}

func newTracer() trace.Tracer {
	return otel.Tracer(telemetry.InstrumentationName)
}

func newToolFactory(
	cfg *configs.Config,
	factory usecase.ObjectFactory,
	mapper usecase.SchemaMapper,
	errorReporter usecase.ErrorReporter,
	logger *slog.Logger,
) *usecase.ToolFactory {
	return usecase.NewToolFactory(factory, mapper, errorReporter, logger,
		usecase.WithSchemaOverrides(cfg.SchemaOverrides))
}

func newMCPServer(
	cfg *configs.Config,
	serveTools *usecase.ServeToolsUseCase,
	invokeTool *usecase.InvokeToolUseCase,
	logger *slog.Logger,
) *mcpserver.Server {
	return mcpserver.New(mcpserver.Options{
		Name:         cfg.ServerName,
		Version:      cfg.ServerVersion,
		Instructions: cfg.Instructions,
	}, serveTools, invokeTool, logger)
}

func registerTelemetry(lc fx.Lifecycle, cfg *configs.Config, logger *slog.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitProvider(ctx, telemetry.ProviderConfig{
				ServiceName:  cfg.ServerName,
				OTLPEndpoint: cfg.OtelExporterOtlpEndpoint,
				OTLPInsecure: cfg.OtelExporterOtlpInsecure,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

// registerDiscovery makes the tools locator listen to the catalog scan and
// publishes the registry once the scan succeeded.
func registerDiscovery(lc fx.Lifecycle, scanner *catalog.Scanner, locator *usecase.ToolsLocator, server *mcpserver.Server) {
	scanner.AddListener(locator)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := scanner.Scan(ctx); err != nil {
				return fmt.Errorf("tool discovery failed: %w", err)
			}
			return server.Publish(ctx)
		},
	})
}
