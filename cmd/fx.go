package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/dantte-lp/dataexchange-broker/config"
	"github.com/dantte-lp/dataexchange-broker/internal/audit"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	rpchandler "github.com/dantte-lp/dataexchange-broker/internal/handler/http"
	"github.com/dantte-lp/dataexchange-broker/internal/handler/ws"
	"github.com/dantte-lp/dataexchange-broker/internal/housekeeper"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

// NewApp assembles the broker's fx graph: Session Registry, Broker (wrapped
// with observability, audit publishing, and watch_variable notification, in
// that order), the RPC Surface's chi router, the watch_variable websocket
// upgrade handler, and the housekeeper — following the teacher's
// provide-modules-then-invoke-server shape (cmd/fx.go).
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideTracerProvider,
			ProvideLoggerProvider,
			ProvideLogger,
		),

		registry.Module,
		service.Module,
		rpchandler.Module,
		ws.Module,
		audit.Module,
		housekeeper.Module,

		// Layer the audit publisher and watch_variable notifier on top of the
		// already-observability-decorated Broker every other component sees.
		fx.Decorate(audit.NewMiddleware),
		fx.Decorate(ws.NewNotifyMiddleware),

		fx.Invoke(registerServer, registerTelemetryShutdown),
	)
}

func registerTelemetryShutdown(lc fx.Lifecycle, tp *sdktrace.TracerProvider, lgp *sdklog.LoggerProvider) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ShutdownTelemetry(ctx, tp, lgp)
		},
	})
}

func registerServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *slog.Logger,
	rpc *rpchandler.Handler,
	debug *rpchandler.DebugHandler,
	watch *ws.Handler,
) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(TracingMiddleware)
	rpc.Routes(r)
	debug.Routes(r)
	r.Get("/watch_variable", watch.ServeHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server stopped unexpectedly", slog.Any("err", err))
				}
			}()
			logger.Info("rpc_surface_listening", slog.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
