package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders expr back into JSONPath syntax. Parse(expr.String()) must
// yield a semantically equivalent expression (the parse -> print -> parse
// round trip is a tested property of this package).
func (e *Expression) String() string {
	var sb strings.Builder

	for _, sel := range e.Selectors {
		writeSelector(&sb, sel)
	}

	return sb.String()
}

func writeSelector(sb *strings.Builder, sel Selector) {
	switch sel.Kind {
	case SelKindRoot:
		sb.WriteByte('$')
	case SelKindProperty:
		if isBareIdent(sel.Name) {
			sb.WriteByte('.')
			sb.WriteString(sel.Name)
		} else {
			sb.WriteString("['")
			sb.WriteString(quoteEscaper.Replace(sel.Name))
			sb.WriteString("']")
		}
	case SelKindIndex:
		fmt.Fprintf(sb, "[%d]", sel.Index)
	case SelKindIndexList:
		sb.WriteByte('[')

		for i, idx := range sel.Indices {
			if i > 0 {
				sb.WriteByte(',')
			}

			fmt.Fprintf(sb, "%d", idx)
		}

		sb.WriteByte(']')
	case SelKindSlice:
		sb.WriteByte('[')

		if sel.SliceStart != nil {
			fmt.Fprintf(sb, "%d", *sel.SliceStart)
		}

		sb.WriteByte(':')

		if sel.SliceEnd != nil {
			fmt.Fprintf(sb, "%d", *sel.SliceEnd)
		}

		if sel.SliceStep != nil {
			sb.WriteByte(':')
			fmt.Fprintf(sb, "%d", *sel.SliceStep)
		}

		sb.WriteByte(']')
	case SelKindWildcard:
		sb.WriteString(".*")
	case SelKindRecursiveDescent:
		// The Property or Wildcard selector that follows writes the second '.'.
		sb.WriteByte('.')
	case SelKindUnion:
		sb.WriteByte('[')

		for i, m := range sel.Members {
			if i > 0 {
				sb.WriteByte(',')
			}

			sb.WriteString("'")
			sb.WriteString(quoteEscaper.Replace(m.Name))
			sb.WriteString("'")
		}

		sb.WriteByte(']')
	case SelKindFilter:
		sb.WriteString("[?(")
		sb.WriteString(stringifyFilter(sel.Filter))
		sb.WriteString(")]")
	}
}

// quoteEscaper escapes text printed inside a quoted name or string literal
// so that the lexer reads it back unchanged.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)

func isBareIdent(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}

		if i > 0 && r >= '0' && r <= '9' {
			continue
		}

		return false
	}

	return true
}

func stringifyFilter(f FilterExpr) string {
	switch f.Kind {
	case FilterKindLiteral:
		switch f.LiteralKind {
		case LiteralNull:
			return "null"
		case LiteralBool:
			return strconv.FormatBool(f.LitBool)
		case LiteralNumber:
			return strconv.FormatFloat(f.LitNumber, 'g', -1, 64)
		case LiteralString:
			return "\"" + quoteEscaper.Replace(f.LitString) + "\""
		}
	case FilterKindPath:
		prefix := "$"
		if f.PathOnCurrent {
			prefix = "@"
		}

		var sb strings.Builder

		sb.WriteString(prefix)

		for _, seg := range f.PathSegments {
			if isBareIdent(seg) {
				sb.WriteString("." + seg)
			} else {
				sb.WriteString("['" + quoteEscaper.Replace(seg) + "']")
			}
		}

		return sb.String()
	case FilterKindUnary:
		return f.UnaryOp + stringifyFilter(*f.Operand)
	case FilterKindBinary:
		return "(" + stringifyFilter(*f.Left) + " " + f.BinaryOp + " " + stringifyFilter(*f.Right) + ")"
	case FilterKindFunctionCall:
		args := make([]string, len(f.FuncArgs))
		for i, a := range f.FuncArgs {
			args[i] = stringifyFilter(a)
		}

		return f.FuncName + "(" + strings.Join(args, ", ") + ")"
	}

	return ""
}
