package di

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/config"
	"github.com/sandeepkv93/campus-portal-backend/internal/database"
	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/observability"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/security"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newDIUnitTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.Config{DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "di.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newDIUnitTestBolt(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := database.OpenBolt(filepath.Join(t.TempDir(), "di.bolt"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout: %v", srv.ReadHeaderTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{CORSAllowedOrigins: []string{"http://localhost:3000"}, AuthRateLimitPerMin: 10, APIRateLimitPerMin: 100, OTELTracingEnabled: true}
	codec := security.NewSessionCodec("abcdefghijklmnopqrstuvwxyz123456", "campus")
	dep := provideRouterDependencies(nil, nil, nil, nil, codec, nil, nil, nil, cfg)
	if dep.AuthRateLimitRPM != 10 || dep.APIRateLimitRPM != 100 {
		t.Fatalf("unexpected rate limits: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
	if dep.SessionCodec != codec {
		t.Fatal("session codec not wired")
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
}

func TestProvideOTPStore(t *testing.T) {
	boltDB := newDIUnitTestBolt(t)

	t.Run("memory", func(t *testing.T) {
		store, err := provideOTPStore(&config.Config{OTPStore: config.OTPStoreMemory}, nil, boltDB)
		if err != nil {
			t.Fatalf("memory store: %v", err)
		}
		if _, ok := store.(*repository.InMemoryOTPStore); !ok {
			t.Fatalf("expected in-memory store, got %T", store)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		store, err := provideOTPStore(&config.Config{OTPStore: config.OTPStoreBolt}, nil, boltDB)
		if err != nil {
			t.Fatalf("bolt store: %v", err)
		}
		if _, ok := store.(*repository.BoltOTPStore); !ok {
			t.Fatalf("expected bolt store, got %T", store)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		store, err := provideOTPStore(&config.Config{OTPStore: config.OTPStoreRedis, RedisPrefix: "campus"}, client, boltDB)
		if err != nil {
			t.Fatalf("redis store: %v", err)
		}
		if _, ok := store.(*repository.RedisOTPStore); !ok {
			t.Fatalf("expected redis store, got %T", store)
		}
		rec := &domain.OTPRecord{Email: "kim@uni.edu", Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}
		if err := store.Save(context.Background(), rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		if !mr.Exists("campus:otp:kim@uni.edu") {
			t.Fatalf("expected key campus:otp:kim@uni.edu, have %v", mr.Keys())
		}
	})

	t.Run("redis without client", func(t *testing.T) {
		if _, err := provideOTPStore(&config.Config{OTPStore: config.OTPStoreRedis}, nil, boltDB); err == nil {
			t.Fatal("expected error when redis client is missing")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := provideOTPStore(&config.Config{OTPStore: "etcd"}, nil, boltDB); err == nil {
			t.Fatal("expected error for unknown store")
		}
	})
}

func TestProvideRedisClient(t *testing.T) {
	if client := provideRedisClient(&config.Config{RedisEnabled: false}, slog.Default()); client != nil {
		t.Fatal("expected nil redis client when redis is disabled")
	}
	cfg := &config.Config{RedisEnabled: true, RedisAddr: "localhost:6390", RedisPassword: "pw", RedisDB: 2}
	client := provideRedisClient(cfg, slog.Default())
	if client == nil {
		t.Fatal("expected redis client")
	}
	defer func() { _ = client.Close() }()
	rc, ok := client.(*redis.Client)
	if !ok {
		t.Fatalf("expected *redis.Client, got %T", client)
	}
	opts := rc.Options()
	if opts.Addr != "localhost:6390" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected redis options: %+v", opts)
	}
}

func TestProvideAuthRateLimiterLocalEnforcesLimit(t *testing.T) {
	cfg := &config.Config{AuthRateLimitPerMin: 2}
	h := provideAuthRateLimiter(cfg, nil)(okHandler())
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
}

func TestProvideAuthRateLimiterRedisFailClosed(t *testing.T) {
	cfg := &config.Config{RedisEnabled: true, RedisPrefix: "campus", AuthRateLimitPerMin: 5}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer func() { _ = client.Close() }()
	h := provideAuthRateLimiter(cfg, client)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail-closed response when redis unavailable, got %d", rr.Code)
	}
}

func TestProvideGlobalRateLimiterRedisFailOpen(t *testing.T) {
	cfg := &config.Config{RedisEnabled: true, RedisPrefix: "campus", APIRateLimitPerMin: 5}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer func() { _ = client.Close() }()
	codec := security.NewSessionCodec("abcdefghijklmnopqrstuvwxyz123456", "campus")
	h := provideGlobalRateLimiter(cfg, client, codec)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open response when redis unavailable, got %d", rr.Code)
	}
}

func TestProvideGlobalRateLimiterKeysBySession(t *testing.T) {
	cfg := &config.Config{APIRateLimitPerMin: 1}
	codec := security.NewSessionCodec("abcdefghijklmnopqrstuvwxyz123456", "campus")
	h := provideGlobalRateLimiter(cfg, nil, codec)(okHandler())

	token, _, err := codec.CreateSession(security.SessionClaims{UserID: "42", Username: "alice", Role: string(domain.RoleStudent)})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.RemoteAddr = remote
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := send("10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("same subject from another ip should share the bucket, got %d", code)
	}
}

func TestProvideReadinessReadinessRunner(t *testing.T) {
	db := newDIUnitTestDB(t)
	boltDB := newDIUnitTestBolt(t)

	runner := provideReadinessRunner(&config.Config{ReadinessCheckTimeout: time.Second}, db, boltDB, nil, nil)
	ready, results := runner.Ready(context.Background())
	if !ready || len(results) != 2 {
		t.Fatalf("expected db and bolt healthy, got ready=%v results=%+v", ready, results)
	}

	runner = provideReadinessRunner(&config.Config{ReadinessCheckTimeout: time.Second, RedisEnabled: true}, db, boltDB, nil, nil)
	ready, results = runner.Ready(context.Background())
	if ready || len(results) != 3 {
		t.Fatalf("expected redis checker to fail without a client, got ready=%v results=%+v", ready, results)
	}
}

func TestMigrationRunnerPromotesBootstrapOwner(t *testing.T) {
	db := newDIUnitTestDB(t)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&domain.User{Username: "dean", Email: "dean@uni.edu", Role: domain.RoleAdmin, Status: domain.UserStatusActive}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	runner := NewMigrationRunner(&config.Config{BootstrapOwnerEmail: "dean@uni.edu"}, db)
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report == nil || !report.Promoted {
		t.Fatalf("expected promotion report, got %+v", report)
	}
	var u domain.User
	if err := db.Where("email = ?", "dean@uni.edu").First(&u).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if u.Role != domain.RoleOwner {
		t.Fatalf("expected owner, got %s", u.Role)
	}
}

func TestProvideApp(t *testing.T) {
	cfg := &config.Config{HTTPPort: "8080", ShutdownTimeout: 3 * time.Second}
	logger := slog.Default()
	srv := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	runtime := &observability.Runtime{}

	a := provideApp(cfg, logger, srv, runtime, nil, nil, nil, nil)
	if a == nil {
		t.Fatal("expected app")
	}
	if a.Config != cfg || a.Logger != logger || a.Server != srv || a.Observability != runtime {
		t.Fatal("app dependencies not wired as expected")
	}
	if a.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", a.ShutdownTimeout)
	}
}

var _ service.ObjectStorage = (*service.MinIOStorage)(nil)
