package graph

import (
	"errors"
	"fmt"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/d60-Lab/graphql-crud/internal/service"
)

// extensions.code 取值
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeParseFailed         = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed    = "GRAPHQL_VALIDATION_FAILED"
	CodeBadUserInput        = "BAD_USER_INPUT"
	CodeOperationResolution = "OPERATION_RESOLUTION_FAILURE"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
)

// codedError 解析器返回的错误，graphql-go 通过 Extensions 把 code 写进响应
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func errorCode(err error) string {
	var coded *codedError
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return CodeNotFound
	case errors.As(err, &coded):
		return coded.code
	default:
		return CodeInternal
	}
}

// resolverError 给服务层错误打上 code
func resolverError(err error) error {
	if err == nil {
		return nil
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded
	}
	return &codedError{code: errorCode(err), err: err}
}

func codeOf(qe *gqlerrors.QueryError) string {
	code, _ := qe.Extensions["code"].(string)
	return code
}

func withCode(qe *gqlerrors.QueryError, code string) *gqlerrors.QueryError {
	if qe.Extensions == nil {
		qe.Extensions = map[string]interface{}{}
	}
	if _, ok := qe.Extensions["code"]; !ok {
		qe.Extensions["code"] = code
	}
	return qe
}

// fromGQL 把 gqlparser 的错误转成响应里的错误格式
func fromGQL(err *gqlerror.Error, code string) *gqlerrors.QueryError {
	qe := &gqlerrors.QueryError{Message: err.Message}
	for _, loc := range err.Locations {
		qe.Locations = append(qe.Locations, gqlerrors.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, elem := range err.Path {
		switch p := elem.(type) {
		case ast.PathName:
			qe.Path = append(qe.Path, string(p))
		case ast.PathIndex:
			qe.Path = append(qe.Path, int(p))
		}
	}
	for k, v := range err.Extensions {
		if qe.Extensions == nil {
			qe.Extensions = map[string]interface{}{}
		}
		qe.Extensions[k] = v
	}
	return withCode(qe, code)
}

func listResponse(errs gqlerror.List, code string) *Response {
	resp := &Response{}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, fromGQL(err, code))
	}
	return resp
}

// ErrorResponse 未进入执行阶段的错误响应（没有 data 字段）
func ErrorResponse(code string, err error) *Response {
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		return listResponse(gqlerror.List{gerr}, code)
	}
	var list gqlerror.List
	if errors.As(err, &list) && len(list) > 0 {
		return listResponse(list, code)
	}
	return &Response{Errors: []*gqlerrors.QueryError{withCode(&gqlerrors.QueryError{Message: err.Error()}, code)}}
}

func badInput(format string, args ...any) error {
	return &gqlerror.Error{Message: fmt.Sprintf(format, args...)}
}
