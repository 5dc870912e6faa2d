package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	rateLimitAllowed   metric.Int64Counter
	rateLimitDenied    metric.Int64Counter
	rateLimitDegraded  metric.Int64Counter
	qaAsks             metric.Int64Counter
	entitlementSyncs   metric.Int64Counter
	usageIncrementFail metric.Int64Counter
	billingEvents      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName(cfg))

	var (
		m   Metrics
		err error
	)
	if m.rateLimitAllowed, err = meter.Int64Counter("courtside_rate_limit_allowed_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = meter.Int64Counter("courtside_rate_limit_denied_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDegraded, err = meter.Int64Counter("courtside_rate_limit_degraded_total"); err != nil {
		return nil, err
	}
	if m.qaAsks, err = meter.Int64Counter("courtside_qa_asks_total"); err != nil {
		return nil, err
	}
	if m.entitlementSyncs, err = meter.Int64Counter("courtside_entitlement_sync_total"); err != nil {
		return nil, err
	}
	if m.usageIncrementFail, err = meter.Int64Counter("courtside_usage_increment_failures_total"); err != nil {
		return nil, err
	}
	if m.billingEvents, err = meter.Int64Counter("courtside_billing_events_total"); err != nil {
		return nil, err
	}

	return &m, nil
}

func meterName(cfg Config) string {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "courtside"
	}
	return name
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, actorType, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("actor_type", strings.TrimSpace(actorType)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, actorType, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("actor_type", strings.TrimSpace(actorType)),
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDegraded counts requests decided without a reachable counter store.
func (m *Metrics) RecordRateLimitDegraded(ctx context.Context, failMode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("fail_mode", strings.TrimSpace(failMode)))
	m.rateLimitDegraded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordQAAsk counts ask outcomes: answered, limited, timed_out or failed.
func (m *Metrics) RecordQAAsk(ctx context.Context, outcome, intent string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("intent", strings.TrimSpace(intent)),
	)
	m.qaAsks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEntitlementSync counts synchronizations by whether they wrote.
func (m *Metrics) RecordEntitlementSync(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.entitlementSyncs.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordUsageIncrementFailure(ctx context.Context, counter string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("counter", strings.TrimSpace(counter)))
	m.usageIncrementFail.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordBillingEvent(ctx context.Context, provider, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
	m.billingEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"actor_type":  {},
	"endpoint":    {},
	"method":      {},
	"status_code": {},
	"outcome":     {},
	"intent":      {},
	"counter":     {},
	"fail_mode":   {},
	"provider":    {},
	"event_type":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
