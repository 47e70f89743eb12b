package jsonpath

import (
	"github.com/kesh-io/promptbridge/internal/xregexp"
	"github.com/kesh-io/promptbridge/value"
)

// evalFilter evaluates a FilterExpr against the current node (`@`) and the
// document root (`$`), returning the boolean result used to keep/drop an
// array element, or the scalar value when the filter is itself used as a
// function argument.
func evalFilter(f FilterExpr, current, root value.Value) (value.Value, error) {
	switch f.Kind {
	case FilterKindLiteral:
		return evalLiteral(f), nil
	case FilterKindPath:
		base := root
		if f.PathOnCurrent {
			base = current
		}

		resolved, ok := value.GetPath(base, f.PathSegments)
		if !ok {
			return value.Value{}, nil // missing path => treated as "does not exist"
		}

		return resolved, nil
	case FilterKindUnary:
		return evalUnary(f, current, root)
	case FilterKindBinary:
		return evalBinary(f, current, root)
	case FilterKindFunctionCall:
		return evalFunctionCall(f, current, root)
	default:
		return value.Value{}, executionErr("unknown filter expression kind")
	}
}

func evalLiteral(f FilterExpr) value.Value {
	switch f.LiteralKind {
	case LiteralBool:
		return value.Bool(f.LitBool)
	case LiteralNumber:
		return value.Number(f.LitNumber)
	case LiteralString:
		return value.String(f.LitString)
	default:
		return value.Null()
	}
}

func evalUnary(f FilterExpr, current, root value.Value) (value.Value, error) {
	operand, err := evalFilter(*f.Operand, current, root)
	if err != nil {
		return value.Value{}, err
	}

	switch f.UnaryOp {
	case "!":
		return value.Bool(!truthy(operand)), nil
	default:
		return value.Value{}, executionErr("unsupported unary operator %q", f.UnaryOp)
	}
}

func evalBinary(f FilterExpr, current, root value.Value) (value.Value, error) {
	if f.BinaryOp == "&&" {
		left, err := evalFilter(*f.Left, current, root)
		if err != nil {
			return value.Value{}, err
		}

		if !truthy(left) {
			return value.Bool(false), nil
		}

		right, err := evalFilter(*f.Right, current, root)
		if err != nil {
			return value.Value{}, err
		}

		return value.Bool(truthy(right)), nil
	}

	if f.BinaryOp == "||" {
		left, err := evalFilter(*f.Left, current, root)
		if err != nil {
			return value.Value{}, err
		}

		if truthy(left) {
			return value.Bool(true), nil
		}

		right, err := evalFilter(*f.Right, current, root)
		if err != nil {
			return value.Value{}, err
		}

		return value.Bool(truthy(right)), nil
	}

	left, err := evalFilter(*f.Left, current, root)
	if err != nil {
		return value.Value{}, err
	}

	right, err := evalFilter(*f.Right, current, root)
	if err != nil {
		return value.Value{}, err
	}

	switch f.BinaryOp {
	case "==":
		return value.Bool(value.Equal(left, right)), nil
	case "!=":
		return value.Bool(!value.Equal(left, right)), nil
	case "<", "<=", ">", ">=":
		return compareNumeric(f.BinaryOp, left, right)
	case "=~":
		return evalRegexMatch(left, right)
	case "in":
		return evalIn(left, right)
	default:
		return value.Value{}, executionErr("unsupported binary operator %q", f.BinaryOp)
	}
}

func compareNumeric(op string, left, right value.Value) (value.Value, error) {
	ln, ok1 := left.AsNumber()
	rn, ok2 := right.AsNumber()

	if !ok1 || !ok2 {
		return value.Value{}, typeMismatchErr("operator %q requires numeric operands", op)
	}

	var result bool

	switch op {
	case "<":
		result = ln < rn
	case "<=":
		result = ln <= rn
	case ">":
		result = ln > rn
	case ">=":
		result = ln >= rn
	}

	return value.Bool(result), nil
}

// evalRegexMatch implements the full-regex fallback for `=~`, using
// regexp2 (dlclark/regexp2) rather than a wildcard-only match. This is a
// deliberate divergence, recorded in the design ledger.
func evalRegexMatch(left, right value.Value) (value.Value, error) {
	subject, ok := left.AsString()
	if !ok {
		return value.Value{}, typeMismatchErr("'=~' requires a string operand on the left")
	}

	pattern, ok := right.AsString()
	if !ok {
		return value.Value{}, typeMismatchErr("'=~' requires a string pattern on the right")
	}

	if err := xregexp.CompileError(pattern); err != nil {
		return value.Value{}, compileErr("invalid regex pattern %q: %v", pattern, err)
	}

	return value.Bool(xregexp.MatchString(pattern, subject)), nil
}

func evalIn(left, right value.Value) (value.Value, error) {
	if right.Kind() != value.KindArray {
		return value.Value{}, typeMismatchErr("'in' requires an array on the right")
	}

	arr, _ := right.AsArray()
	for _, item := range arr {
		if value.Equal(left, item) {
			return value.Bool(true), nil
		}
	}

	return value.Bool(false), nil
}

func evalFunctionCall(f FilterExpr, current, root value.Value) (value.Value, error) {
	fn, ok := lookupFunction(f.FuncName)
	if !ok {
		return value.Value{}, functionErr("unknown function %q", f.FuncName)
	}

	args := make([]value.Value, len(f.FuncArgs))

	for i, a := range f.FuncArgs {
		v, err := evalFilter(a, current, root)
		if err != nil {
			return value.Value{}, err
		}

		args[i] = v
	}

	return fn(args)
}

// truthy mirrors JSONPath filter semantics: null, false and the empty string
// are falsy, every other value is truthy; missing paths evaluate to Null
// (falsy).
func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindNull:
		return false
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindString:
		s, _ := v.AsString()
		return s != ""
	default:
		return true
	}
}
