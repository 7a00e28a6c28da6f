package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

// Post 客户端视角的帖子
type Post struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type wirePost struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (w *wirePost) toPost() Post {
	return Post{
		ID:        w.ID,
		Title:     w.Title,
		Content:   w.Content,
		CreatedAt: parseMillis(w.CreatedAt),
		UpdatedAt: parseMillis(w.UpdatedAt),
	}
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（不再包 otelhttp）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache 注入查询缓存
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTimeout 后台拉取列表的超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client GraphQL over HTTP 客户端。列表查询走缓存，任何变更成功后清空缓存并重新拉取
type Client struct {
	endpoint   string
	httpClient *http.Client
	cache      Cache
	timeout    time.Duration

	mu  sync.Mutex
	gen uint64

	// 列表拉取同一时刻最多一个，并发读者共享结果
	fetches singleflight.Group
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cache:      NewMemoryCache(),
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// do 发送一次操作并返回 data；响应带 errors 时返回 *ResponseError
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(request{Query: query, OperationName: op, Variables: vars})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", op, resp.StatusCode, err)
	}
	if len(env.Errors) > 0 {
		return nil, &ResponseError{Operation: op, Errors: env.Errors}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return env.Data, nil
}

// Posts 优先读缓存
func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	if data, ok := c.cache.Get(opGetPosts); ok {
		if posts, err := decodePosts(data); err == nil {
			return posts, nil
		}
	}
	return c.RefetchPosts(ctx)
}

// RefetchPosts 绕过缓存拉取列表并写回缓存
func (c *Client) RefetchPosts(ctx context.Context) ([]Post, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	data, err := c.do(ctx, opGetPosts, getPostsQuery, nil)
	if err != nil {
		return nil, err
	}
	posts, err := decodePosts(data)
	if err != nil {
		return nil, err
	}

	// 拉取期间缓存被清空过，结果可能早于那次变更，不写回
	c.mu.Lock()
	if c.gen == gen {
		c.cache.Set(opGetPosts, data)
	}
	c.mu.Unlock()
	return posts, nil
}

func decodePosts(data json.RawMessage) ([]Post, error) {
	var out struct {
		Posts []wirePost `json:"posts"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]Post, 0, len(out.Posts))
	for i := range out.Posts {
		posts = append(posts, out.Posts[i].toPost())
	}
	return posts, nil
}

// Post 查询单个帖子，不存在时返回 nil, nil
func (c *Client) Post(ctx context.Context, id int64) (*Post, error) {
	data, err := c.do(ctx, opGetPost, getPostQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	var out struct {
		Post *wirePost `json:"post"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	if out.Post == nil {
		return nil, nil
	}
	post := out.Post.toPost()
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, title, content string) (*Post, error) {
	return c.mutate(ctx, opCreatePost, createPostMutation, "createPost", map[string]any{
		"title":   title,
		"content": content,
	})
}

// UpdatePost 与页面表单一致，标题和内容总是一起提交
func (c *Client) UpdatePost(ctx context.Context, id int64, title, content string) (*Post, error) {
	return c.mutate(ctx, opUpdatePost, updatePostMutation, "updatePost", map[string]any{
		"id":      id,
		"title":   title,
		"content": content,
	})
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	_, err := c.mutate(ctx, opDeletePost, deletePostMutation, "deletePost", map[string]any{"id": id})
	return err
}

func (c *Client) mutate(ctx context.Context, op, query, field string, vars map[string]any) (*Post, error) {
	data, err := c.do(ctx, op, query, vars)
	if err != nil {
		return nil, err
	}
	var out map[string]*wirePost
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	c.invalidate(ctx)

	wp := out[field]
	if wp == nil {
		return nil, nil
	}
	post := wp.toPost()
	return &post, nil
}

// invalidate 清空缓存后立即重新拉取列表；拉取失败只记日志，下次读取会走网络
func (c *Client) invalidate(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	c.cache.Clear()
	c.mu.Unlock()

	if _, err := c.RefetchPosts(ctx); err != nil {
		logger.Warn("refetch posts after mutation failed", zap.Error(err))
	}
}
