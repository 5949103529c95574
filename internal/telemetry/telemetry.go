// Package telemetry wires OpenTelemetry tracing into the HTTP surface.
package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/hankhank10/loglink-server/internal/core"
)

func init() {
	core.RegisterModule(&Module{})
}

// Config holds the tracing settings.
type Config struct {
	// ServiceName labels exported spans. Defaults to "loglink".
	ServiceName string `yaml:"service_name"`

	// Environment is attached as deployment.environment.
	Environment string `yaml:"environment"`

	// Endpoint is the OTLP/HTTP collector address. Empty falls back to
	// a pretty-printed stdout exporter, useful in development.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Headers are sent with every OTLP export request.
	Headers map[string]string `yaml:"headers"`

	// SampleRatio is the parent-based trace sampling ratio, clamped to
	// [0, 1]. Defaults to 0.1.
	SampleRatio float64 `yaml:"sample_ratio"`
}

func (c *Config) defaults() {
	if c.ServiceName == "" {
		c.ServiceName = "loglink"
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 0.1
	}
	if c.SampleRatio < 0 {
		c.SampleRatio = 0
	}
	if c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
}

// Module owns the tracer provider lifecycle and publishes the HTTP
// middleware as a service for the gateway.
type Module struct {
	config   Config
	logger   *slog.Logger
	provider *sdktrace.TracerProvider
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "telemetry.otel",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return err
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The provider is built here so
// the middleware service exists before the gateway starts.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.logger = ctx.Logger

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(m.config.ServiceName),
			attribute.String("deployment.environment", m.config.Environment),
		),
	)
	if err != nil {
		m.logger.Warn("otel resource init failed, continuing", "error", err)
	}

	exporter, err := m.buildExporter(context.Background())
	if err != nil {
		return err
	}

	m.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(m.config.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(m.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx.RegisterService("telemetry.http_middleware", Middleware(m.provider.Tracer("gateway")))
	return nil
}

func (m *Module) buildExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if m.config.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(m.config.Endpoint)}
		if m.config.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(m.config.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(m.config.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	m.logger.Warn("otel using stdout exporter, no OTLP endpoint configured")
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// Stop implements core.Stopper. Flushes buffered spans.
func (m *Module) Stop(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// Middleware wraps each request in a server span and echoes the trace
// ID back in the X-Trace-Id response header.
func Middleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
