package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/graphql-crud/internal/model"
)

// ErrPostNotFound 指定 id 的帖子不存在
var ErrPostNotFound = errors.New("post not found")

// PostFields 更新时可选的字段，nil 表示不修改
type PostFields struct {
	Title   *string
	Content *string
}

// PostRepository 帖子仓储接口
type PostRepository interface {
	// List 按 id 升序返回全部帖子
	List(ctx context.Context) ([]*model.Post, error)

	// GetByID 不存在时返回 ErrPostNotFound
	GetByID(ctx context.Context, id int64) (*model.Post, error)

	// Create 写入帖子，回填 id 与时间戳
	Create(ctx context.Context, post *model.Post) error

	// Update 只更新给定字段并刷新 updated_at
	Update(ctx context.Context, id int64, fields PostFields) (*model.Post, error)

	// Delete 删除并返回删除前的值
	Delete(ctx context.Context, id int64) (*model.Post, error)

	// Count 统计帖子数量
	Count(ctx context.Context) (int64, error)

	// Ping 检查存储是否可用
	Ping(ctx context.Context) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) List(ctx context.Context) ([]*model.Post, error) {
	res := make([]*model.Post, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, id int64, fields PostFields) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if fields.Title != nil {
			post.Title = *fields.Title
		}
		if fields.Content != nil {
			post.Content = *fields.Content
		}
		// 显式 Select，空字符串也要写入
		if err := tx.Model(&post).Select("title", "content", "updated_at").Updates(&post).Error; err != nil {
			return err
		}
		return tx.First(&post, id).Error
	})
	if err != nil {
		return nil, notFound(err, id)
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id int64) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, notFound(err, id)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&count).Error
	return count, err
}

func (r *postRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w (id=%d)", ErrPostNotFound, id)
	}
	return err
}
