package cacheperf

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/internal/repository"
)

// CountingRepository 统计落到数据库的读请求，放在缓存装饰器下面使用
type CountingRepository struct {
	repository.PostRepository
	dbDelay time.Duration

	listQueries atomic.Int64
	getQueries  atomic.Int64
}

// NewCountingRepository dbDelay 模拟访问主库的往返耗时
func NewCountingRepository(next repository.PostRepository, dbDelay time.Duration) *CountingRepository {
	return &CountingRepository{PostRepository: next, dbDelay: dbDelay}
}

func (r *CountingRepository) List(ctx context.Context) ([]*model.Post, error) {
	time.Sleep(r.dbDelay)
	r.listQueries.Add(1)
	return r.PostRepository.List(ctx)
}

func (r *CountingRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	time.Sleep(r.dbDelay)
	r.getQueries.Add(1)
	return r.PostRepository.GetByID(ctx, id)
}

// ResetCounters 清零计数
func (r *CountingRepository) ResetCounters() {
	r.listQueries.Store(0)
	r.getQueries.Store(0)
}

// Counters 当前计数
func (r *CountingRepository) Counters() DBCounters {
	return DBCounters{ListQueries: r.listQueries.Load(), GetQueries: r.getQueries.Load()}
}

// DBCounters 一轮压测中的数据库读取次数
type DBCounters struct {
	ListQueries int64
	GetQueries  int64
}

// Request 一次读取：ID 为 0 表示读列表
type Request struct {
	ID int64
}

// MakeRequests 生成读取序列，listRatio 比例的请求读列表，其余按 id 读单条
func MakeRequests(n int, ids []int64, listRatio float64, seed int64) []Request {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]Request, n)
	for i := range out {
		if len(ids) == 0 || rnd.Float64() < listRatio {
			continue
		}
		out[i] = Request{ID: ids[rnd.Intn(len(ids))]}
	}
	return out
}

// Result 一轮压测结果
type Result struct {
	Durations []time.Duration
	Counters  DBCounters
}

// Run 依次执行请求并记录耗时；warm 为 true 时先完整跑一遍预热缓存
func Run(ctx context.Context, repo repository.PostRepository, counter *CountingRepository, reqs []Request, warm bool) (Result, error) {
	if warm {
		for _, r := range reqs {
			if err := read(ctx, repo, r); err != nil {
				return Result{}, err
			}
		}
	}
	counter.ResetCounters()

	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		if err := read(ctx, repo, r); err != nil {
			return Result{}, err
		}
		out = append(out, time.Since(start))
	}
	return Result{Durations: out, Counters: counter.Counters()}, nil
}

func read(ctx context.Context, repo repository.PostRepository, r Request) error {
	if r.ID == 0 {
		_, err := repo.List(ctx)
		return err
	}
	_, err := repo.GetByID(ctx, r.ID)
	return err
}

func Avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

// Pct 百分位耗时，p 取 0-1
func Pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
