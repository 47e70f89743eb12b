package jsonpath

import (
	"fmt"

	"github.com/kesh-io/promptbridge/bridgeerr"
)

func parseErr(pos int, format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathParse),
		Message: fmt.Sprintf("at position %d: %s", pos, fmt.Sprintf(format, args...)),
	}
}

func compileErr(format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathCompile),
		Message: fmt.Sprintf(format, args...),
	}
}

func executionErr(format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathExecution),
		Message: fmt.Sprintf(format, args...),
	}
}

func typeMismatchErr(format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathTypeMismatch),
		Message: fmt.Sprintf(format, args...),
	}
}

func indexOutOfBoundsErr(format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathIndexOutOfRange),
		Message: fmt.Sprintf(format, args...),
	}
}

func functionErr(format string, args ...any) error {
	return &bridgeerr.Error{
		Kind:    bridgeerr.KindJSONPathError,
		SubKind: string(bridgeerr.JSONPathFunction),
		Message: fmt.Sprintf(format, args...),
	}
}
