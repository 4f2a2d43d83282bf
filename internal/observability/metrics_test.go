package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func recordEveryHelper(ctx context.Context) {
	RecordAuthLogin(ctx, "local", "success")
	RecordAuthLogout(ctx, "success")
	RecordAuthRequestDuration(ctx, "login", "success", 10*time.Millisecond)
	RecordSessionValidation(ctx, "valid", "cookie")
	RecordOTPEvent(ctx, "verify", "mismatch")
	RecordPasswordFlowEvent(ctx, "reset", "success")
	RecordRoleMutation(ctx, "admin", "success")
	RecordBulkStatusCount(ctx, "suspended", 3)
	RecordAdminListRequestDuration(ctx, "users", "success", 20*time.Millisecond)
	RecordAdminListPageSize(ctx, "users", 25)
	RecordRateLimitDecision(ctx, "auth", "allow", "distributed", "ip")
	RecordRateLimitRetryAfter(ctx, "auth", time.Second)
	RecordUploadEvent(ctx, "moderate", "approved")
	RecordUploadSize(ctx, "application/pdf", 2048)
	RecordNotificationDelivery(ctx, "announcement", "sent")
	RecordGoogleOAuthRequestDuration(ctx, "exchange", "success", 12*time.Millisecond)
	RecordRepositoryOperation(ctx, "user", "list", "success")
	RecordHealthCheckResult(ctx, "db", "ready")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
	RecordToolCommandRun(ctx, "migrate", "up", "success")
	RecordToolCommandDuration(ctx, "seed", "owner", "success", 30*time.Millisecond)
	RecordLoadgenRequest(ctx, "2xx", "baseline")
}

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	recordEveryHelper(context.Background())
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("newAppMetrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	recordEveryHelper(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"auth.login.attempts":                2,
		"auth.logout.attempts":               1,
		"auth.request.duration":              2,
		"auth.session.validation.events":     2,
		"auth.otp.events":                    2,
		"auth.password.flow.events":          2,
		"admin.role.mutations":               2,
		"admin.bulk_status.count":            1,
		"admin.list.request.duration":        2,
		"admin.list.page_size":               1,
		"http.rate_limit.decisions":          4,
		"http.rate_limit.retry_after":        1,
		"upload.events":                      2,
		"upload.size":                        1,
		"notification.deliveries":            2,
		"auth.oauth.google.request.duration": 2,
		"repository.operations":              3,
		"health.check.results":               2,
		"health.check.duration":              1,
		"tool.command.runs":                  3,
		"tool.command.duration":              3,
		"loadgen.requests":                   2,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
