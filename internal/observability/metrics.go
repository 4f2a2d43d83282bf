package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "campus-portal-backend"

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authLogoutCounter        metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	sessionValidationCounter metric.Int64Counter
	otpEventCounter          metric.Int64Counter
	passwordFlowCounter      metric.Int64Counter
	roleMutationCounter      metric.Int64Counter
	bulkStatusCount          metric.Float64Histogram
	adminListReqDuration     metric.Float64Histogram
	adminListPageSize        metric.Float64Histogram
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	uploadEventCounter       metric.Int64Counter
	uploadSize               metric.Float64Histogram
	notificationCounter      metric.Int64Counter
	oauthGoogleReqDuration   metric.Float64Histogram
	repositoryOpsCounter     metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	toolCommandRuns          metric.Int64Counter
	toolCommandDuration      metric.Float64Histogram
	loadgenRequestsCounter   metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var firstErr error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("create counter %s: %w", name, err)
		}
		return c
	}
	hist := func(name, unit, desc string) metric.Float64Histogram {
		opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
		if unit != "" {
			opts = append(opts, metric.WithUnit(unit))
		}
		h, err := meter.Float64Histogram(name, opts...)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("create histogram %s: %w", name, err)
		}
		return h
	}

	m := &AppMetrics{
		authLoginCounter:         counter("auth.login.attempts", "Login attempts by provider and outcome"),
		authLogoutCounter:        counter("auth.logout.attempts", "Logout requests"),
		authReqDuration:          hist("auth.request.duration", "s", "Duration of auth endpoint requests in seconds"),
		sessionValidationCounter: counter("auth.session.validation.events", "Session token validation outcomes"),
		otpEventCounter:          counter("auth.otp.events", "One-time code issue and verification outcomes"),
		passwordFlowCounter:      counter("auth.password.flow.events", "Password reset and change flow outcomes"),
		roleMutationCounter:      counter("admin.role.mutations", "Role reassignment outcomes"),
		bulkStatusCount:          hist("admin.bulk_status.count", "", "Users affected per bulk status update"),
		adminListReqDuration:     hist("admin.list.request.duration", "s", "Duration of admin list endpoint requests in seconds"),
		adminListPageSize:        hist("admin.list.page_size", "", "Requested page size for admin list endpoints"),
		rateLimitDecisionCounter: counter("http.rate_limit.decisions", "Rate limiter decisions"),
		rateLimitRetryAfter:      hist("http.rate_limit.retry_after", "s", "Retry-after duration in seconds for throttled requests"),
		uploadEventCounter:       counter("upload.events", "Upload and moderation outcomes"),
		uploadSize:               hist("upload.size", "By", "Accepted upload sizes in bytes"),
		notificationCounter:      counter("notification.deliveries", "Notification delivery outcomes"),
		oauthGoogleReqDuration:   hist("auth.oauth.google.request.duration", "s", "Duration of Google OAuth calls in seconds"),
		repositoryOpsCounter:     counter("repository.operations", "Repository operation outcomes"),
		healthCheckResultCounter: counter("health.check.results", "Health dependency check outcomes"),
		healthCheckDuration:      hist("health.check.duration", "s", "Duration of health dependency checks in seconds"),
		toolCommandRuns:          counter("tool.command.runs", "Operator CLI command runs"),
		toolCommandDuration:      hist("tool.command.duration", "s", "Operator CLI command duration in seconds"),
		loadgenRequestsCounter:   counter("loadgen.requests", "Load generator requests by status class"),
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return m, nil
}

func loadMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, provider, status string) {
	if m := loadMetrics(); m != nil {
		m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		))
	}
}

func RecordAuthLogout(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

// RecordSessionValidation source is "cookie" or "header".
func RecordSessionValidation(ctx context.Context, outcome, source string) {
	if m := loadMetrics(); m != nil {
		m.sessionValidationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("source", source),
		))
	}
}

func RecordOTPEvent(ctx context.Context, action, outcome string) {
	if m := loadMetrics(); m != nil {
		m.otpEventCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordPasswordFlowEvent(ctx context.Context, flow, outcome string) {
	if m := loadMetrics(); m != nil {
		m.passwordFlowCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordRoleMutation(ctx context.Context, toRole, status string) {
	if m := loadMetrics(); m != nil {
		m.roleMutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("to_role", toRole),
			attribute.String("status", status),
		))
	}
}

func RecordBulkStatusCount(ctx context.Context, status string, count int64) {
	if m := loadMetrics(); m != nil {
		m.bulkStatusCount.Record(ctx, float64(count), metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAdminListRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.adminListReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

func RecordAdminListPageSize(ctx context.Context, endpoint string, pageSize int) {
	if m := loadMetrics(); m != nil {
		m.adminListPageSize.Record(ctx, float64(pageSize), metric.WithAttributes(attribute.String("endpoint", endpoint)))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	if m := loadMetrics(); m != nil {
		m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
			attribute.String("key_type", keyType),
		))
	}
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, retryAfter time.Duration) {
	if m := loadMetrics(); m != nil {
		m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(attribute.String("scope", scope)))
	}
}

func RecordUploadEvent(ctx context.Context, action, outcome string) {
	if m := loadMetrics(); m != nil {
		m.uploadEventCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordUploadSize(ctx context.Context, contentType string, size int64) {
	if m := loadMetrics(); m != nil {
		m.uploadSize.Record(ctx, float64(size), metric.WithAttributes(attribute.String("content_type", contentType)))
	}
}

func RecordNotificationDelivery(ctx context.Context, kind, outcome string) {
	if m := loadMetrics(); m != nil {
		m.notificationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordGoogleOAuthRequestDuration(ctx context.Context, stage, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.oauthGoogleReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		))
	}
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	if m := loadMetrics(); m != nil {
		m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("repository", repo),
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := loadMetrics(); m != nil {
		m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("check", check)))
	}
}

func RecordToolCommandRun(ctx context.Context, tool, command, status string) {
	if m := loadMetrics(); m != nil {
		m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("status", status),
		))
	}
}

func RecordToolCommandDuration(ctx context.Context, tool, command, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("status", status),
		))
	}
}

func RecordLoadgenRequest(ctx context.Context, statusClass, profile string) {
	if m := loadMetrics(); m != nil {
		m.loadgenRequestsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status_class", statusClass),
			attribute.String("profile", profile),
		))
	}
}
