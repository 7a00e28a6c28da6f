package graph

import (
	"math"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"
)

// coerceVariables 先走 gqlparser 的变量校验，再把 Int 变量收紧成 int32：
// gqlparser 接受 "1" 和 1.5，graphql-go 要到执行阶段才报错
func coerceVariables(schema *ast.Schema, op *ast.OperationDefinition, vars map[string]any) (map[string]any, error) {
	coerced, err := validator.VariableValues(schema, op, vars)
	if err != nil {
		return nil, err
	}
	for _, def := range op.VariableDefinitions {
		if def.Type.Elem != nil || def.Type.NamedType != "Int" {
			continue
		}
		v, ok := coerced[def.Variable]
		if !ok || v == nil {
			continue
		}
		n, ok := int32Value(v)
		if !ok {
			return nil, badInput("Variable \"$%s\" got invalid value %v; Int cannot represent non 32-bit signed integer value", def.Variable, v)
		}
		coerced[def.Variable] = n
	}
	return coerced, nil
}

func int32Value(v any) (int32, bool) {
	var n int64
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		if x < math.MinInt32 || x > math.MaxInt32 {
			return 0, false
		}
		return int32(x), true
	default:
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}
