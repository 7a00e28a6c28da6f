package handler

import (
	"github.com/d60-Lab/graphql-crud/internal/graph"
	"github.com/d60-Lab/graphql-crud/internal/service"
)

// Handler HTTP 接口处理器
type Handler struct {
	executor *graph.Executor
	posts    service.PostService
}

func NewHandler(executor *graph.Executor, posts service.PostService) *Handler {
	return &Handler{executor: executor, posts: posts}
}
