package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/d60-Lab/graphql-crud/config"
	"github.com/d60-Lab/graphql-crud/internal/api/handler"
	"github.com/d60-Lab/graphql-crud/internal/graph"
	"github.com/d60-Lab/graphql-crud/internal/repository"
	"github.com/d60-Lab/graphql-crud/internal/service"
	"github.com/d60-Lab/graphql-crud/pkg/database"
)

// ClientSuite 针对真实的 GraphQL 服务（sqlite 内存库）
type ClientSuite struct {
	suite.Suite
	server *httptest.Server
	cache  *MemoryCache
	client *Client
}

func (s *ClientSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = database.Close(db) })

	posts := service.NewPostService(repository.NewPostRepository(db))
	h := handler.NewHandler(graph.NewExecutor(graph.NewResolver(posts)), posts)
	r := gin.New()
	r.POST("/graphql", h.GraphQL)

	s.server = httptest.NewServer(r)
	s.cache = NewMemoryCache()
	s.client = New(s.server.URL+"/graphql", WithCache(s.cache))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) cachedTitles() []string {
	data, ok := s.cache.Get(opGetPosts)
	if !ok {
		return nil
	}
	posts, err := decodePosts(data)
	s.Require().NoError(err)
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return titles
}

func (s *ClientSuite) TestLifecycle() {
	ctx := context.Background()

	created, err := s.client.CreatePost(ctx, "A", "B")
	s.Require().NoError(err)
	s.Equal("A", created.Title)
	s.False(created.CreatedAt.IsZero())
	s.Equal(created.CreatedAt, created.UpdatedAt)
	s.Equal([]string{"A"}, s.cachedTitles(), "list refetched after create")

	updated, err := s.client.UpdatePost(ctx, created.ID, "A2", "B")
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("A2", updated.Title)
	s.Equal(created.CreatedAt, updated.CreatedAt)
	s.Equal([]string{"A2"}, s.cachedTitles())

	s.Require().NoError(s.client.DeletePost(ctx, created.ID))
	s.Empty(s.cachedTitles())

	got, err := s.client.Post(ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ClientSuite) TestPostsUsesCache() {
	ctx := context.Background()
	_, err := s.client.CreatePost(ctx, "A", "B")
	s.Require().NoError(err)

	s.cache.Set(opGetPosts, json.RawMessage(`{"posts":[{"id":9,"title":"cached","content":"","createdAt":"0","updatedAt":"0"}]}`))
	posts, err := s.client.Posts(ctx)
	s.Require().NoError(err)
	s.Require().Len(posts, 1)
	s.Equal("cached", posts[0].Title)

	posts, err = s.client.RefetchPosts(ctx)
	s.Require().NoError(err)
	s.Equal("A", posts[0].Title)
}

func (s *ClientSuite) TestMissingPostErrors() {
	ctx := context.Background()

	err := s.client.DeletePost(ctx, 404)
	var respErr *ResponseError
	s.Require().True(errors.As(err, &respErr))
	s.Equal(graph.CodeNotFound, respErr.Code())

	_, err = s.client.UpdatePost(ctx, 404, "t", "c")
	s.Require().True(errors.As(err, &respErr))
	s.Equal(graph.CodeNotFound, respErr.Code())
}

func (s *ClientSuite) TestPostsState() {
	ctx := context.Background()
	_, err := s.client.CreatePost(ctx, "A", "B")
	s.Require().NoError(err)
	s.cache.Clear()

	state := s.client.PostsState(ctx, 5*time.Second)
	s.Equal(StatusSuccess, state.Status)
	s.Len(state.Posts, 1)
	s.NoError(state.Err)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

// fakeServer 按操作名返回固定响应，GetPosts 可以被阻塞
type fakeServer struct {
	getPosts atomic.Int32
	release  chan struct{}
	failList bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	_ = json.NewDecoder(r.Body).Decode(&req)
	w.Header().Set("Content-Type", "application/json")
	switch req.OperationName {
	case opGetPosts:
		f.getPosts.Add(1)
		if f.release != nil {
			<-f.release
		}
		if f.failList {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"database is down","extensions":{"code":"INTERNAL_SERVER_ERROR"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"posts":[{"id":1,"title":"t","content":"c","createdAt":"1700000000000","updatedAt":"1700000000000"}]}}`))
	case opCreatePost:
		_, _ = w.Write([]byte(`{"data":{"createPost":{"id":2,"title":"n","content":"c","createdAt":"1700000000000","updatedAt":"1700000000000"}}}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"unexpected operation"}]}`))
	}
}

func TestPostsState_LoadingThenSuccess(t *testing.T) {
	fake := &fakeServer{release: make(chan struct{})}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := New(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := c.PostsState(context.Background(), 20*time.Millisecond)
			assert.Equal(t, StatusLoading, state.Status)
		}()
	}
	wg.Wait()
	close(fake.release)

	state := c.PostsState(context.Background(), 5*time.Second)
	require.Equal(t, StatusSuccess, state.Status)
	require.Len(t, state.Posts, 1)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), state.Posts[0].CreatedAt)
	assert.Equal(t, int32(1), fake.getPosts.Load(), "concurrent readers share one fetch")
}

func TestPostsState_Error(t *testing.T) {
	fake := &fakeServer{failList: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := New(srv.URL)

	state := c.PostsState(context.Background(), 5*time.Second)
	require.Equal(t, StatusError, state.Status)
	assert.Contains(t, state.Err.Error(), "database is down")
	assert.Empty(t, state.Posts)
}

func TestMutation_RefetchFailureLeavesCacheEmpty(t *testing.T) {
	fake := &fakeServer{failList: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	cache := NewMemoryCache()
	cache.Set(opGetPosts, json.RawMessage(`{"posts":[]}`))
	c := New(srv.URL, WithCache(cache))

	created, err := c.CreatePost(context.Background(), "n", "c")
	require.NoError(t, err, "refetch failure is not returned to the caller")
	assert.Equal(t, int64(2), created.ID)

	_, ok := cache.Get(opGetPosts)
	assert.False(t, ok)
	assert.Equal(t, int32(1), fake.getPosts.Load())
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL, WithTimeout(time.Second)).Posts(context.Background())
	require.Error(t, err)
	var respErr *ResponseError
	assert.False(t, errors.As(err, &respErr))
}
