package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestAuditIncludesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "10.1.2.3:5555"

	Audit(req, "auth.login.success", "user_id", uint(42))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode audit line: %v (%s)", err, buf.String())
	}
	want := map[string]any{
		"msg":        "audit",
		"event":      "auth.login.success",
		"method":     "POST",
		"path":       "/api/v1/auth/login",
		"request_id": "req-test-1",
		"client_ip":  "10.1.2.3",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Fatalf("field %s: got %v want %v", k, rec[k], v)
		}
	}
	if rec["user_id"] != float64(42) {
		t.Fatalf("expected user_id attr, got %v", rec["user_id"])
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v want %v", in, got, want)
		}
	}
}
