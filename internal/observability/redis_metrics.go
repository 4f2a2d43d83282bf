package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type redisInstruments struct {
	commands metric.Int64Counter
	latency  metric.Float64Histogram
	pool     metric.Float64ObservableGauge
}

var loadRedisInstruments = sync.OnceValues(func() (*redisInstruments, error) {
	meter := otel.Meter(meterName)
	commands, err := meter.Int64Counter("redis.command.total",
		metric.WithDescription("Redis commands by keyspace, command and status"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("redis.command.duration", metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"))
	if err != nil {
		return nil, err
	}
	pool, err := meter.Float64ObservableGauge("redis.pool.saturation", metric.WithUnit("1"),
		metric.WithDescription("Share of pooled Redis connections in use"))
	if err != nil {
		return nil, err
	}
	return &redisInstruments{commands: commands, latency: latency, pool: pool}, nil
})

// InstrumentRedisClient adds command metrics to client. Keys are grouped by
// the segment that follows prefix, so otp and rate-limit traffic are
// reported separately.
func InstrumentRedisClient(client redis.UniversalClient, prefix string, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	inst, err := loadRedisInstruments()
	if err != nil {
		logger.Warn("redis metrics disabled", "error", err)
		return
	}
	_, err = otel.Meter(meterName).RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := client.PoolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
			o.ObserveFloat64(inst.pool, min(max(used, 0), 1), metric.WithAttributes(attribute.String("prefix", prefix)))
		}
		return nil
	}, inst.pool)
	if err != nil {
		logger.Warn("redis pool gauge disabled", "error", err)
	}
	client.AddHook(&redisMetricsHook{inst: inst, prefix: prefix})
	logger.Info("redis metrics enabled", "prefix", prefix)
}

type redisMetricsHook struct {
	inst   *redisInstruments
	prefix string
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, h.keyspace(cmd), strings.ToLower(cmd.Name()), err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		keyspace := "none"
		if len(cmds) > 0 {
			keyspace = h.keyspace(cmds[0])
		}
		h.observe(ctx, keyspace, "pipeline", err, time.Since(start))
		return err
	}
}

func (h *redisMetricsHook) observe(ctx context.Context, keyspace, command string, err error, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("keyspace", keyspace),
		attribute.String("command", command),
		attribute.String("status", redisCommandStatus(err)),
	)
	h.inst.commands.Add(ctx, 1, attrs)
	h.inst.latency.Record(ctx, d.Seconds(), attrs)
}

// keyspace maps "campus:otp:alice@uni.edu" to "otp" and
// "campus:rl:auth:10.0.0.1" to "rl:auth".
func (h *redisMetricsHook) keyspace(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "none"
	}
	key, ok := args[1].(string)
	if !ok {
		return "none"
	}
	rest, found := strings.CutPrefix(key, h.prefix+":")
	if !found || h.prefix == "" {
		return "other"
	}
	parts := strings.SplitN(rest, ":", 3)
	if parts[0] == "rl" && len(parts) > 1 {
		return "rl:" + parts[1]
	}
	return parts[0]
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "miss"
	case errors.Is(err, redis.TxFailedErr):
		return "conflict"
	default:
		return "error"
	}
}
