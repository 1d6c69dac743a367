package executor

import (
	"context"
	"strings"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// textValue renders v as plain text for string concatenation, without the
// SQL-literal quoting value.Value.SQL applies.
func textValue(v value.Value) string {
	if s, ok := v.(value.Str); ok {
		return string(s)
	}
	return v.SQL()
}

// matchLike implements SQL LIKE pattern matching: "%" matches any run of
// characters, "_" matches exactly one. ILIKE is the case-insensitive form.
func matchLike(s, pattern string, ignoreCase bool) bool {
	if ignoreCase {
		s = strings.ToLower(s)
		pattern = strings.ToLower(pattern)
	}
	return likeMatch([]rune(s), []rune(pattern))
}

func likeMatch(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		if likeMatch(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatch(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatch(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatch(s[1:], p[1:])
	}
}

// evalCall evaluates a function call. The built-in functions, evaluated
// without consulting storage's custom-function registry, are
// UPPER/LOWER/LENGTH/ABS/COALESCE, matching the
// small built-in surface spec.md §4.3 names explicitly.
func evalCall(ctx context.Context, env *Env, call *ast.FunctionCall) (value.Value, error) {
	name := strings.ToUpper(call.Name)
	switch name {
	case "COALESCE":
		for _, a := range call.Args {
			v, err := Eval(ctx, env, a)
			if err != nil {
				return nil, err
			}
			if !value.IsNull(v) {
				return v, nil
			}
		}
		return value.Null{}, nil
	case "UPPER", "LOWER", "LENGTH", "ABS":
		if len(call.Args) != 1 {
			return nil, errs.Evaluate("%s takes exactly one argument", name)
		}
		v, err := Eval(ctx, env, call.Args[0])
		if err != nil {
			return nil, err
		}
		if value.IsNull(v) {
			return value.Null{}, nil
		}
		return evalScalarBuiltin(name, v)
	default:
		return evalUserFunction(ctx, env, call)
	}
}

func evalScalarBuiltin(name string, v value.Value) (value.Value, error) {
	switch name {
	case "UPPER":
		s, ok := v.(value.Str)
		if !ok {
			return nil, errs.Evaluate("UPPER requires a string argument")
		}
		return value.Str(strings.ToUpper(string(s))), nil
	case "LOWER":
		s, ok := v.(value.Str)
		if !ok {
			return nil, errs.Evaluate("LOWER requires a string argument")
		}
		return value.Str(strings.ToLower(string(s))), nil
	case "LENGTH":
		s, ok := v.(value.Str)
		if !ok {
			return nil, errs.Evaluate("LENGTH requires a string argument")
		}
		return value.I64(len([]rune(string(s)))), nil
	case "ABS":
		zero, err := zeroLike(v)
		if err != nil {
			return nil, err
		}
		cmp, ok := value.PartialCompare(v, zero)
		if ok && cmp < 0 {
			return value.Arith(value.OpSub, zero, v)
		}
		return v, nil
	default:
		return nil, errs.Evaluate("unknown builtin function %q", name)
	}
}

func evalUserFunction(ctx context.Context, env *Env, call *ast.FunctionCall) (value.Value, error) {
	if env.Funcs == nil {
		return nil, errs.Evaluate("unknown function %q", call.Name)
	}
	params, body, ok, err := env.Funcs(ctx, call.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Evaluate("unknown function %q", call.Name)
	}
	if len(params) != len(call.Args) {
		return nil, errs.Evaluate("function %q expects %d arguments, got %d", call.Name, len(params), len(call.Args))
	}
	args := make(map[string]value.Value, len(params))
	for i, p := range params {
		v, err := Eval(ctx, env, call.Args[i])
		if err != nil {
			return nil, err
		}
		args[p] = v
	}
	callEnv := &Env{Row: map[string]map[string]value.Value{"": args}, Funcs: env.Funcs}
	return Eval(ctx, callEnv, body)
}
