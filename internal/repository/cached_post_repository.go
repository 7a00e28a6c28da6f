package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

const (
	postsListKey = "posts:all"
	// postsVersionKey 每次写操作自增；读回填前比对，期间有写入就放弃回填
	postsVersionKey = "posts:version"
)

func postKey(id int64) string { return fmt.Sprintf("post:%d", id) }

// cachedPostRepository Redis 读缓存：读走缓存，任何写操作成功后删除相关 key
type cachedPostRepository struct {
	next  PostRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedPostRepository 包装底层仓储；缓存出错时降级到数据库
func NewCachedPostRepository(next PostRepository, cache *redis.Client, ttl time.Duration) PostRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cachedPostRepository{next: next, cache: cache, ttl: ttl}
}

func (r *cachedPostRepository) List(ctx context.Context) ([]*model.Post, error) {
	var cached []*model.Post
	if r.get(ctx, postsListKey, &cached) {
		return cached, nil
	}
	version, ok := r.version(ctx)
	posts, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		r.set(ctx, postsListKey, posts, version)
	}
	return posts, nil
}

func (r *cachedPostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var cached model.Post
	if r.get(ctx, postKey(id), &cached) {
		return &cached, nil
	}
	version, ok := r.version(ctx)
	post, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.set(ctx, postKey(id), post, version)
	}
	return post, nil
}

func (r *cachedPostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.next.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, postsListKey)
	return nil
}

func (r *cachedPostRepository) Update(ctx context.Context, id int64, fields PostFields) (*model.Post, error) {
	post, err := r.next.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, postsListKey, postKey(id))
	return post, nil
}

func (r *cachedPostRepository) Delete(ctx context.Context, id int64) (*model.Post, error) {
	post, err := r.next.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, postsListKey, postKey(id))
	return post, nil
}

func (r *cachedPostRepository) Count(ctx context.Context) (int64, error) {
	return r.next.Count(ctx)
}

func (r *cachedPostRepository) Ping(ctx context.Context) error {
	if err := r.next.Ping(ctx); err != nil {
		return err
	}
	if err := r.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (r *cachedPostRepository) get(ctx context.Context, key string, out any) bool {
	data, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("post cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("post cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// version 读库之前取写版本号；取不到时本次不回填
func (r *cachedPostRepository) version(ctx context.Context) (int64, bool) {
	v, err := r.cache.Get(ctx, postsVersionKey).Int64()
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, redis.Nil):
		return 0, true
	default:
		logger.Warn("post cache version read failed", zap.Error(err))
		return 0, false
	}
}

var errStaleRead = errors.New("posts changed during read")

// set 仅在版本号未变时回填，WATCH 保证比对和写入之间没有插入写操作
func (r *cachedPostRepository) set(ctx context.Context, key string, v any, version int64) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = r.cache.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, postsVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, postsVersionKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		logger.Debug("post cache fill skipped", zap.String("key", key))
	default:
		logger.Warn("post cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedPostRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, postsVersionKey)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Warn("post cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
