package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/graphql-crud/config"
	"github.com/d60-Lab/graphql-crud/internal/cacheperf"
	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/internal/repository"
	"github.com/d60-Lab/graphql-crud/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// benchDatabase 基准使用独立的库（默认 sqlite 内存库），不读取服务的 database 配置和 DATABASE_URL
func benchDatabase() config.DatabaseConfig {
	cfg := config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}
	if dsn := os.Getenv("POSTBENCH_DSN"); dsn != "" {
		cfg.DSN = dsn
		if driver := os.Getenv("POSTBENCH_DRIVER"); driver != "" {
			cfg.Driver = driver
		}
	}
	return cfg
}

func main() {
	ctx := context.Background()
	dbCfg := benchDatabase()
	db := must(database.Open(dbCfg))
	defer database.Close(db)

	posts := envInt("POSTS", 500)
	reqCount := envInt("REQUESTS", 5000)
	dbDelay := time.Duration(envInt("DB_DELAY_US", 1)) * time.Microsecond
	ttl := time.Duration(envInt("CACHE_TTL_S", 600)) * time.Second

	mustDo(database.Migrate(db))

	base := repository.NewPostRepository(db)
	ids := make([]int64, 0, posts)
	fmt.Printf("Seeding %d posts...\n", posts)
	for i := 0; i < posts; i++ {
		p := &model.Post{Title: fmt.Sprintf("post %d", i), Content: "benchmark content"}
		mustDo(base.Create(ctx, p))
		ids = append(ids, p.ID)
	}

	rdb, closeRedis := redisClient(os.Getenv("POSTBENCH_REDIS_ADDR"))
	defer closeRedis()
	mustDo(rdb.Ping(ctx).Err())

	counter := cacheperf.NewCountingRepository(base, dbDelay)
	cached := repository.NewCachedPostRepository(counter, rdb, ttl)
	reqs := cacheperf.MakeRequests(reqCount, ids, 0.1, 42)

	noCache := must(cacheperf.Run(ctx, counter, counter, reqs, false))
	withCache := must(cacheperf.Run(ctx, cached, counter, reqs, true))
	keys := must(rdb.DBSize(ctx).Result())

	fmt.Printf("\nPost read latency (%d req, %d posts, %s)\n", reqCount, posts, dbCfg.Driver)
	report("No cache", noCache, 0)
	report("Redis read cache", withCache, keys)
}

func report(name string, res cacheperf.Result, keys int64) {
	fmt.Printf("%-18s avg=%v p95=%v p99=%v db_list=%d db_get=%d cache_keys=%d\n",
		name, cacheperf.Avg(res.Durations), cacheperf.Pct(res.Durations, 0.95), cacheperf.Pct(res.Durations, 0.99),
		res.Counters.ListQueries, res.Counters.GetQueries, keys,
	)
}

// redisClient 未指定 POSTBENCH_REDIS_ADDR 时使用进程内的 miniredis
func redisClient(addr string) (*redis.Client, func()) {
	if addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return rdb, func() { _ = rdb.Close() }
	}
	mr := must(miniredis.Run())
	fmt.Println("POSTBENCH_REDIS_ADDR not set, using in-process miniredis at", mr.Addr())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}
