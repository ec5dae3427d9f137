// Package metrics exposes business counters through an OpenTelemetry meter
// backed by a Prometheus registry, and mirrors the important ones to
// CloudWatch when that is enabled.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yashrajoria/storefront-service/pkg/aws"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Provider owns the meter provider and the registry served at /metrics.
type Provider struct {
	Registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewProvider builds a meter provider that exports into a private registry.
// Go runtime metrics are included when withRuntime is set.
func NewProvider(serviceName, serviceVersion string, withRuntime bool) (*Provider, error) {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	if withRuntime {
		if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
			return nil, fmt.Errorf("runtime metrics: %w", err)
		}
	}
	return &Provider{Registry: reg, provider: mp}, nil
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.provider.Meter(name)
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

// Recorder is the set of business counters. A nil *Recorder records nothing.
type Recorder struct {
	verifications   metric.Int64Counter
	ordersCreated   metric.Int64Counter
	archiveFailures metric.Int64Counter
	cartMutations   metric.Int64Counter
	cloudwatch      aws.MetricsRecorder
}

// NewRecorder registers the counters on meter. cw may be nil.
func NewRecorder(meter metric.Meter, cw aws.MetricsRecorder) (*Recorder, error) {
	var (
		r   = &Recorder{cloudwatch: cw}
		err error
	)
	if r.verifications, err = meter.Int64Counter("storefront_payment_verifications",
		metric.WithDescription("Payment verifications by outcome")); err != nil {
		return nil, err
	}
	if r.ordersCreated, err = meter.Int64Counter("storefront_orders_created",
		metric.WithDescription("Orders persisted after a confirmed payment")); err != nil {
		return nil, err
	}
	if r.archiveFailures, err = meter.Int64Counter("storefront_invoice_archive_failures",
		metric.WithDescription("Invoice copies that could not be archived")); err != nil {
		return nil, err
	}
	if r.cartMutations, err = meter.Int64Counter("storefront_cart_mutations",
		metric.WithDescription("Cart writes by operation")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) PaymentVerified(ctx context.Context, status string) {
	if r == nil {
		return
	}
	r.verifications.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if r.cloudwatch == nil || !r.cloudwatch.IsEnabled() {
		return
	}
	name := aws.MetricPaymentFailed
	if status == "CONFIRMED" {
		name = aws.MetricPaymentSucceeded
	}
	_ = r.cloudwatch.RecordCount(ctx, name, map[string]string{"Status": status})
}

func (r *Recorder) OrderCreated(ctx context.Context) {
	if r == nil {
		return
	}
	r.ordersCreated.Add(ctx, 1)
	if r.cloudwatch != nil && r.cloudwatch.IsEnabled() {
		_ = r.cloudwatch.RecordCount(ctx, aws.MetricOrdersCreated, nil)
	}
}

func (r *Recorder) InvoiceArchiveFailed(ctx context.Context) {
	if r == nil {
		return
	}
	r.archiveFailures.Add(ctx, 1)
	if r.cloudwatch != nil && r.cloudwatch.IsEnabled() {
		_ = r.cloudwatch.RecordCount(ctx, aws.MetricInvoiceArchiveFailed, nil)
	}
}

func (r *Recorder) CartMutated(ctx context.Context, op string) {
	if r == nil {
		return
	}
	r.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
