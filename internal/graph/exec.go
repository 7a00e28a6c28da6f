package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/graphql-crud/pkg/logger"
)

// Request GraphQL over HTTP 请求体
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`

	// ReadOnly 为 true 时只允许 query（GET 请求）
	ReadOnly bool `json:"-"`
}

// Response 执行结果；未进入执行阶段时没有 data 字段
type Response struct {
	Data   json.RawMessage         `json:"data,omitempty"`
	Errors []*gqlerrors.QueryError `json:"errors,omitempty"`

	executed bool
}

// Executed 请求是否进入了执行阶段（决定 HTTP 状态码）
func (r *Response) Executed() bool { return r.executed }

// Executor 执行前用 gqlparser 做解析、校验和变量转换并给错误分类，执行交给 graphql-go
type Executor struct {
	schema *ast.Schema
	exec   *graphql.Schema
	tracer trace.Tracer
}

func NewExecutor(resolver *Resolver) *Executor {
	return &Executor{
		schema: loadSchema(),
		exec:   graphql.MustParseSchema(schemaSDL, resolver, graphql.Logger(panicLogger{})),
		tracer: otel.Tracer(tracerName),
	}
}

// Execute 执行一次请求。解析、校验、选择操作和变量转换的错误都不会调用解析器
func (e *Executor) Execute(ctx context.Context, req Request) *Response {
	if strings.TrimSpace(req.Query) == "" {
		return ErrorResponse(CodeBadRequest, errors.New("GraphQL operations must contain a non-empty `query`"))
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Query})
	if err != nil {
		return ErrorResponse(CodeParseFailed, err)
	}
	if errs := validator.Validate(e.schema, doc); len(errs) > 0 {
		return listResponse(errs, CodeValidationFailed)
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		if req.OperationName == "" {
			return ErrorResponse(CodeOperationResolution, errors.New("Must provide operation name if query contains multiple operations."))
		}
		return ErrorResponse(CodeOperationResolution, fmt.Errorf("Unknown operation named %q.", req.OperationName))
	}

	switch op.Operation {
	case ast.Query:
	case ast.Mutation:
		if req.ReadOnly {
			return ErrorResponse(CodeBadRequest, errors.New("mutations are not allowed over GET"))
		}
	default:
		return ErrorResponse(CodeBadRequest, fmt.Errorf("%s operations are not supported", op.Operation))
	}

	vars, err := coerceVariables(e.schema, op, req.Variables)
	if err != nil {
		return ErrorResponse(CodeBadUserInput, err)
	}

	ctx, span := e.tracer.Start(ctx, "graphql."+string(op.Operation), trace.WithAttributes(
		attribute.String("graphql.operation.type", string(op.Operation)),
		attribute.String("graphql.operation.name", op.Name),
	))
	defer span.End()

	res := e.exec.Exec(ctx, req.Query, op.Name, vars)
	if len(res.Data) == 0 && len(res.Errors) > 0 {
		// graphql-go 自己的校验没通过，解析器没有运行
		for _, qe := range res.Errors {
			withCode(qe, CodeValidationFailed)
		}
		return &Response{Errors: res.Errors}
	}

	resp := &Response{Data: res.Data, Errors: res.Errors, executed: true}
	if len(resp.Data) == 0 {
		resp.Data = json.RawMessage("null")
	}
	for _, qe := range resp.Errors {
		withCode(qe, CodeInternal)
		e.report(ctx, op, qe)
	}
	if len(resp.Errors) > 0 {
		span.SetStatus(codes.Error, resp.Errors[0].Message)
	}
	return resp
}

func (e *Executor) report(ctx context.Context, op *ast.OperationDefinition, qe *gqlerrors.QueryError) {
	code := codeOf(qe)
	fields := []zap.Field{
		zap.String("operation", op.Name),
		zap.Any("path", qe.Path),
		zap.String("code", code),
		zap.String("error", qe.Message),
	}
	if code != CodeInternal {
		logger.Debug("graphql field error", fields...)
		return
	}
	logger.Error("graphql field error", fields...)

	err := qe.ResolverError
	if err == nil {
		err = errors.New(qe.Message)
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// panicLogger 解析器 panic 时 graphql-go 会回调这里，对应字段返回错误
type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value interface{}) {
	logger.Error("graphql resolver panic", zap.Any("panic", value))
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.RecoverWithContext(ctx, value)
	}
}
