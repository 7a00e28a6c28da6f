package graph

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/internal/service"
)

const tracerName = "github.com/d60-Lab/graphql-crud/internal/graph"

// Resolver Query 和 Mutation 的根解析器，全部委托给 PostService
type Resolver struct {
	posts  service.PostService
	tracer trace.Tracer
}

func NewResolver(posts service.PostService) *Resolver {
	return &Resolver{posts: posts, tracer: otel.Tracer(tracerName)}
}

// span 根字段各开一个 span
func (r *Resolver) span(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (r *Resolver) Posts(ctx context.Context) (_ []*postResolver, err error) {
	ctx, end := r.span(ctx, "Query.posts")
	defer func() { end(err) }()

	posts, err := r.posts.ListPosts(ctx)
	if err != nil {
		return nil, resolverError(err)
	}
	out := make([]*postResolver, 0, len(posts))
	for _, p := range posts {
		out = append(out, &postResolver{p})
	}
	return out, nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID int32 }) (_ *postResolver, err error) {
	ctx, end := r.span(ctx, "Query.post")
	defer func() { end(err) }()

	post, err := r.posts.GetPost(ctx, int64(args.ID))
	if err != nil {
		return nil, resolverError(err)
	}
	if post == nil {
		return nil, nil
	}
	return &postResolver{post}, nil
}

func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Title   string
	Content string
}) (_ *postResolver, err error) {
	ctx, end := r.span(ctx, "Mutation.createPost")
	defer func() { end(err) }()

	post, err := r.posts.CreatePost(ctx, args.Title, args.Content)
	if err != nil {
		return nil, resolverError(err)
	}
	return &postResolver{post}, nil
}

// UpdatePost 参数缺省和显式 null 都是 nil，对应列保持不变
func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID      int32
	Title   *string
	Content *string
}) (_ *postResolver, err error) {
	ctx, end := r.span(ctx, "Mutation.updatePost")
	defer func() { end(err) }()

	post, err := r.posts.UpdatePost(ctx, int64(args.ID), service.UpdatePostInput{Title: args.Title, Content: args.Content})
	if err != nil {
		return nil, resolverError(err)
	}
	return &postResolver{post}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID int32 }) (_ *postResolver, err error) {
	ctx, end := r.span(ctx, "Mutation.deletePost")
	defer func() { end(err) }()

	post, err := r.posts.DeletePost(ctx, int64(args.ID))
	if err != nil {
		return nil, resolverError(err)
	}
	return &postResolver{post}, nil
}

type postResolver struct {
	p *model.Post
}

func (r *postResolver) ID() (int32, error) {
	if r.p.ID > math.MaxInt32 {
		return 0, resolverError(fmt.Errorf("Int cannot represent post id %d", r.p.ID))
	}
	return int32(r.p.ID), nil
}

func (r *postResolver) Title() string { return r.p.Title }

func (r *postResolver) Content() string { return r.p.Content }

func (r *postResolver) CreatedAt() string { return Timestamp(r.p.CreatedAt) }

func (r *postResolver) UpdatedAt() string { return Timestamp(r.p.UpdatedAt) }

// Timestamp 时间字段的输出格式：Unix 毫秒的十进制字符串
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
