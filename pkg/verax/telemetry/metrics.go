// Package telemetry exposes verification metrics through Prometheus and,
// optionally, an OpenTelemetry OTLP exporter.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"golang.org/x/time/rate"

	"github.com/verax-io/verax/pkg/verax/config"
)

// Recorder is the narrow interface the dispatcher publishes through, so
// analysis code never depends on a live registry.
type Recorder interface {
	RecordVerification(mode string, status string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordClaims(count int)
	RecordSignals(count int)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

// RecordVerification implements Recorder
func (NopRecorder) RecordVerification(string, string, time.Duration) {}

// RecordCacheHit implements Recorder
func (NopRecorder) RecordCacheHit() {}

// RecordCacheMiss implements Recorder
func (NopRecorder) RecordCacheMiss() {}

// RecordClaims implements Recorder
func (NopRecorder) RecordClaims(int) {}

// RecordSignals implements Recorder
func (NopRecorder) RecordSignals(int) {}

// Manager coordinates the Prometheus registry, the metrics endpoint and
// the optional OTel meter provider.
type Manager struct {
	cfg      config.TelemetryConfig
	registry *prometheus.Registry
	server   *http.Server

	otelMeterProvider metric.MeterProvider
	otelMeter         metric.Meter
	otelVerifications metric.Int64Counter

	verifications *prometheus.CounterVec
	duration      prometheus.Histogram
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	claimsTotal   prometheus.Counter
	signalsTotal  prometheus.Counter
}

// NewManager builds a telemetry manager from configuration. With both
// backends disabled it still satisfies Recorder at near-zero cost.
func NewManager(cfg config.TelemetryConfig) (*Manager, error) {
	m := &Manager{cfg: cfg}

	if cfg.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		m.registry = reg

		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		m.verifications = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dispatcher",
			Name:      "verifications_total",
			Help:      "Total number of verification calls by mode and status",
		}, []string{"mode", "status"})

		m.duration = promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "dispatcher",
			Name:      "verification_duration_seconds",
			Help:      "Verification duration in seconds",
			Buckets:   prometheus.DefBuckets,
		})

		m.cacheHits = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of report cache hits",
		})

		m.cacheMisses = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of report cache misses",
		})

		m.claimsTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "audit",
			Name:      "claims_total",
			Help:      "Total number of extracted claims",
		})

		m.signalsTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "antifake",
			Name:      "signals_total",
			Help:      "Total number of detected manipulation signals",
		})
	}

	if cfg.OTelEnabled {
		ctx := context.Background()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTelEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(cfg.Namespace),
				semconv.ServiceVersion("v1.0.0"),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}

		meterProvider := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(10*time.Second),
			)),
		)
		otel.SetMeterProvider(meterProvider)

		m.otelMeterProvider = meterProvider
		m.otelMeter = meterProvider.Meter(cfg.Namespace)

		m.otelVerifications, err = m.otelMeter.Int64Counter("verax.verifications",
			metric.WithDescription("Total number of verification calls"))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTel counter: %w", err)
		}
	}

	return m, nil
}

// Start launches the metrics endpoint when Prometheus is enabled.
func (m *Manager) Start() error {
	if !m.cfg.PrometheusEnabled {
		log.Info().Msg("Prometheus metrics are disabled")
		return nil
	}

	handler := m.rateLimitedHandler(promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))

	m.server = &http.Server{
		Addr:    m.cfg.PrometheusEndpoint,
		Handler: handler,
	}

	go func() {
		log.Info().Str("addr", m.cfg.PrometheusEndpoint).Msg("Starting metrics server")
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return nil
}

// Stop gracefully shuts down the endpoint and the OTel provider.
func (m *Manager) Stop(ctx context.Context) error {
	if m.server != nil {
		log.Info().Msg("Shutting down metrics server")
		if err := m.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down metrics server: %w", err)
		}
	}

	if provider, ok := m.otelMeterProvider.(*sdkmetric.MeterProvider); ok {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down OpenTelemetry provider: %w", err)
		}
	}

	return nil
}

// rateLimitedHandler guards the metrics endpoint with a token bucket.
func (m *Manager) rateLimitedHandler(next http.Handler) http.Handler {
	var limiter *rate.Limiter
	if m.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(m.cfg.RateLimit)/60.0), m.cfg.RateLimit)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil && !limiter.Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordVerification implements Recorder
func (m *Manager) RecordVerification(mode, status string, duration time.Duration) {
	if m.verifications != nil {
		m.verifications.WithLabelValues(mode, status).Inc()
		m.duration.Observe(duration.Seconds())
	}
	if m.otelVerifications != nil {
		m.otelVerifications.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("mode", mode),
				attribute.String("status", status),
			))
	}
}

// RecordCacheHit implements Recorder
func (m *Manager) RecordCacheHit() {
	if m.cacheHits != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss implements Recorder
func (m *Manager) RecordCacheMiss() {
	if m.cacheMisses != nil {
		m.cacheMisses.Inc()
	}
}

// RecordClaims implements Recorder
func (m *Manager) RecordClaims(count int) {
	if m.claimsTotal != nil {
		m.claimsTotal.Add(float64(count))
	}
}

// RecordSignals implements Recorder
func (m *Manager) RecordSignals(count int) {
	if m.signalsTotal != nil {
		m.signalsTotal.Add(float64(count))
	}
}
