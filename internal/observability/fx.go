package observability

import (
	"github.com/smallbiznis/courtside/internal/observability/logger"
	"github.com/smallbiznis/courtside/internal/observability/metrics"
	"github.com/smallbiznis/courtside/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// Nothing else depends on the tracer provider; force it so the global is installed.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
