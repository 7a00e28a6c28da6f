package client

import (
	"context"
	"time"
)

// Status 列表查询的可观察状态
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	}
	return "unknown"
}

// State 列表查询的当前状态，Err 只在 StatusError 时非空
type State struct {
	Status Status
	Posts  []Post
	Err    error
}

// PostsState 缓存命中直接返回 Success；否则启动（或复用）后台拉取并最多等待 wait，
// 超时仍未完成返回 Loading
func (c *Client) PostsState(ctx context.Context, wait time.Duration) State {
	if data, ok := c.cache.Get(opGetPosts); ok {
		if posts, err := decodePosts(data); err == nil {
			return State{Status: StatusSuccess, Posts: posts}
		}
	}

	// 拉取用独立的 context，等待方超时离开后仍会完成并写回缓存
	ch := c.fetches.DoChan(opGetPosts, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		return c.RefetchPosts(fetchCtx)
	})

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return State{Status: StatusError, Err: res.Err}
		}
		return State{Status: StatusSuccess, Posts: res.Val.([]Post)}
	case <-timer.C:
		return State{Status: StatusLoading}
	case <-ctx.Done():
		return State{Status: StatusLoading}
	}
}
