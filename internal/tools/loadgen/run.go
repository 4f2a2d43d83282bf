package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
	Status429     int64
}

type request struct {
	method string
	path   string
	body   string
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	requests := requestsForProfile(cfg.Profile)
	if len(requests) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	profile := strings.ToLower(cfg.Profile)
	if profile == "" {
		profile = "mixed"
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	client := &http.Client{Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx, s429 int64
	jobs := make(chan request, cfg.Concurrency*2)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for job := range jobs {
				req, err := http.NewRequestWithContext(gctx, job.method, baseURL+job.path, strings.NewReader(job.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if job.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					observability.RecordLoadgenRequest(gctx, "error", profile)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				class := statusClass(resp.StatusCode)
				switch class {
				case "2xx":
					atomic.AddInt64(&s2xx, 1)
				case "4xx":
					atomic.AddInt64(&s4xx, 1)
				case "5xx":
					atomic.AddInt64(&s5xx, 1)
				}
				if resp.StatusCode == http.StatusTooManyRequests {
					atomic.AddInt64(&s429, 1)
				}
				observability.RecordLoadgenRequest(gctx, class, profile)
			}
			return nil
		})
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			select {
			case jobs <- requests[rng.Intn(len(requests))]:
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(jobs)
	_ = g.Wait()
	return Result{
		TotalRequests: atomic.LoadInt64(&total),
		Failures:      atomic.LoadInt64(&failures),
		Status2xx:     atomic.LoadInt64(&s2xx),
		Status4xx:     atomic.LoadInt64(&s4xx),
		Status5xx:     atomic.LoadInt64(&s5xx),
		Status429:     atomic.LoadInt64(&s429),
	}, nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func requestsForProfile(profile string) []request {
	badLogin := request{http.MethodPost, "/api/v1/auth/login", `{"identifier":"loadgen@uni.edu","password":"wrong-password-123"}`}
	forgot := request{http.MethodPost, "/api/v1/auth/password/forgot", `{"email":"loadgen@uni.edu"}`}
	switch strings.ToLower(profile) {
	case "", "mixed":
		return []request{
			{method: http.MethodGet, path: "/health/live"},
			{method: http.MethodGet, path: "/health/ready"},
			{method: http.MethodGet, path: "/api/v1/uploads"},
			{method: http.MethodGet, path: "/api/v1/me"},
			badLogin,
		}
	case "auth":
		return []request{badLogin, forgot, {method: http.MethodGet, path: "/api/v1/auth/google/login"}}
	case "error-heavy":
		return []request{
			badLogin,
			{method: http.MethodGet, path: "/api/v1/me"},
			{method: http.MethodGet, path: "/api/v1/admin/users"},
			{method: http.MethodGet, path: "/api/v1/auth/google/callback?state=bad&code=x"},
		}
	default:
		return nil
	}
}
