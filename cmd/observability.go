package cmd

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dantte-lp/dataexchange-broker/config"
)

// ProvideLogger builds the process-wide slog.Logger from cfg.Logging: a
// stdout text/JSON handler fanned out alongside the otelslog bridge handler,
// so every log record also reaches lp, following the teacher's
// ProvideLogger/ProvideWatermillLogger naming (referenced from cmd/fx.go but
// never itself part of the retrieved pack) generalized to the multi-handler
// shape dittofs's ColorTextHandler demonstrates for a custom slog.Handler.
func ProvideLogger(cfg *config.Config, lp *sdklog.LoggerProvider) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	var stdoutHandler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	otelHandler := otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(lp))

	logger := slog.New(newFanoutHandler(stdoutHandler, otelHandler))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// fanoutHandler dispatches every record to each of its handlers, so the
// otelslog bridge sees the same records the stdout handler prints.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &fanoutHandler{handlers: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// resourceFor builds the minimal OTel resource identifying this service,
// shared by the tracer and logger providers below.
func resourceFor() *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.namespace", ServiceNamespace),
	)
}

// ProvideTracerProvider builds the process-wide TracerProvider and installs
// it globally, so TracingMiddleware (cmd/tracing.go) and
// internal/housekeeper's per-tick span both land on the same pipeline via
// otel.Tracer(...), without threading the provider through fx by hand. With
// no OTLP exporter configured yet, every span is still created, attributed
// and ended — it simply has nowhere to export to until one is added.
func ProvideTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resourceFor()),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// ProvideLoggerProvider builds the OTel LoggerProvider backing the otelslog
// bridge in ProvideLogger, mirroring ProvideTracerProvider's shape.
func ProvideLoggerProvider() *sdklog.LoggerProvider {
	return sdklog.NewLoggerProvider(sdklog.WithResource(resourceFor()))
}

// ShutdownTelemetry flushes and closes the tracer and logger providers,
// invoked from the fx.Lifecycle OnStop hook in fx.go.
func ShutdownTelemetry(ctx context.Context, tp *sdktrace.TracerProvider, lp *sdklog.LoggerProvider) error {
	if err := tp.Shutdown(ctx); err != nil {
		return err
	}
	return lp.Shutdown(ctx)
}
