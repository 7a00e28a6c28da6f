package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/graphql-crud/internal/graph"
)

// GraphQL 执行 POST /graphql 请求体中的操作
func (h *Handler) GraphQL(c *gin.Context) {
	var req graph.Request
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		h.writeGraphQL(c, graph.ErrorResponse(graph.CodeBadRequest, fmt.Errorf("invalid request body: %w", err)))
		return
	}
	h.writeGraphQL(c, h.executor.Execute(c.Request.Context(), req))
}

// GraphQLGet 执行 GET /graphql?query=...，只允许 query 操作
func (h *Handler) GraphQLGet(c *gin.Context) {
	req := graph.Request{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
		ReadOnly:      true,
	}
	if raw := c.Query("variables"); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&req.Variables); err != nil {
			h.writeGraphQL(c, graph.ErrorResponse(graph.CodeBadRequest, errors.New("variables must be a JSON object")))
			return
		}
	}
	h.writeGraphQL(c, h.executor.Execute(c.Request.Context(), req))
}

func (h *Handler) writeGraphQL(c *gin.Context, resp *graph.Response) {
	status := http.StatusOK
	if !resp.Executed() {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}
