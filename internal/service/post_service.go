package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/internal/model"
	"github.com/d60-Lab/graphql-crud/internal/repository"
	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

// ErrPostNotFound 供上层用 errors.Is 判断
var ErrPostNotFound = repository.ErrPostNotFound

// UpdatePostInput nil 字段保持原值
type UpdatePostInput struct {
	Title   *string
	Content *string
}

// PostService 帖子服务：直接委托给仓储，不做校验
type PostService interface {
	ListPosts(ctx context.Context) ([]*model.Post, error)
	// GetPost 不存在时返回 nil, nil
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	CreatePost(ctx context.Context, title, content string) (*model.Post, error)
	UpdatePost(ctx context.Context, id int64, in UpdatePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) (*model.Post, error)
	Health(ctx context.Context) error
}

type postService struct {
	repo repository.PostRepository
}

func NewPostService(repo repository.PostRepository) PostService {
	return &postService{repo: repo}
}

func (s *postService) ListPosts(ctx context.Context) ([]*model.Post, error) {
	return s.repo.List(ctx)
}

func (s *postService) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, nil
	}
	return post, err
}

func (s *postService) CreatePost(ctx context.Context, title, content string) (*model.Post, error) {
	post := &model.Post{Title: title, Content: content}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	logger.Info("post created", zap.Int64("id", post.ID))
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, id int64, in UpdatePostInput) (*model.Post, error) {
	post, err := s.repo.Update(ctx, id, repository.PostFields{Title: in.Title, Content: in.Content})
	if err != nil {
		return nil, err
	}
	logger.Info("post updated", zap.Int64("id", id))
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Info("post deleted", zap.Int64("id", id))
	return post, nil
}

func (s *postService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
