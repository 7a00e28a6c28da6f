package cacheperf

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/graphql-crud/config"
	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/internal/repository"
	"github.com/d60-Lab/graphql-crud/pkg/database"
)

func seed(t *testing.T, n int) (repository.PostRepository, []int64) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	repo := repository.NewPostRepository(db)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		p := &model.Post{Title: "t", Content: "c"}
		require.NoError(t, repo.Create(context.Background(), p))
		ids = append(ids, p.ID)
	}
	return repo, ids
}

func TestRun_NoCacheHitsDatabase(t *testing.T) {
	base, ids := seed(t, 10)
	counter := NewCountingRepository(base, 0)
	reqs := MakeRequests(50, ids, 0.2, 42)

	res, err := Run(context.Background(), counter, counter, reqs, false)
	require.NoError(t, err)
	assert.Len(t, res.Durations, 50)
	assert.Equal(t, int64(50), res.Counters.ListQueries+res.Counters.GetQueries)
}

func TestRun_WarmCacheSkipsDatabase(t *testing.T) {
	base, ids := seed(t, 10)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := NewCountingRepository(base, 0)
	cached := repository.NewCachedPostRepository(counter, rdb, time.Minute)
	reqs := MakeRequests(50, ids, 0.2, 42)

	res, err := Run(context.Background(), cached, counter, reqs, true)
	require.NoError(t, err)
	assert.Equal(t, DBCounters{}, res.Counters)
}

func TestMakeRequests(t *testing.T) {
	reqs := MakeRequests(100, []int64{1, 2, 3}, 0.3, 7)
	require.Len(t, reqs, 100)
	lists := 0
	for _, r := range reqs {
		if r.ID == 0 {
			lists++
			continue
		}
		assert.Contains(t, []int64{1, 2, 3}, r.ID)
	}
	assert.Greater(t, lists, 0)
	assert.Less(t, lists, 100)

	assert.Equal(t, reqs, MakeRequests(100, []int64{1, 2, 3}, 0.3, 7), "same seed, same sequence")
}

func TestPct(t *testing.T) {
	vs := []time.Duration{5, 1, 4, 2, 3, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(10), Pct(vs, 0.99))
	assert.Equal(t, time.Duration(5), Pct(vs, 0.5))
	assert.Equal(t, time.Duration(0), Pct(nil, 0.5))
	assert.Equal(t, time.Duration(5), Avg([]time.Duration{4, 6}))
}
