package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	if c.db == nil {
		return unhealthy(res, "db not configured")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return unhealthy(res, err.Error())
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unhealthy(res, err.Error())
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if c.client == nil {
		return unhealthy(res, "redis not configured")
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unhealthy(res, err.Error())
	}
	return res
}

// BoltChecker opens a read transaction; a closed or corrupt file fails it.
type BoltChecker struct {
	db *bolt.DB
}

func NewBoltChecker(db *bolt.DB) *BoltChecker {
	return &BoltChecker{db: db}
}

func (c *BoltChecker) Check(context.Context) CheckResult {
	res := CheckResult{Name: "bolt", Healthy: true}
	if c.db == nil {
		return unhealthy(res, "bolt not configured")
	}
	if err := c.db.View(func(*bolt.Tx) error { return nil }); err != nil {
		return unhealthy(res, err.Error())
	}
	return res
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts anything with a Ping method, such as the object store.
type PingChecker struct {
	name string
	p    Pinger
}

func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, p: p}
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	if c.p == nil {
		return unhealthy(res, c.name+" not configured")
	}
	if err := c.p.Ping(ctx); err != nil {
		return unhealthy(res, err.Error())
	}
	return res
}

func unhealthy(res CheckResult, msg string) CheckResult {
	res.Healthy = false
	res.Error = msg
	return res
}
