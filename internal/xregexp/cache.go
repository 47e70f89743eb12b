// Package xregexp caches compiled regular expressions by pattern text so the
// jsonpath filter engine and the transform package's Matches condition don't
// recompile the same pattern on every evaluation.
package xregexp

import (
	"github.com/dlclark/regexp2/v2"

	"github.com/kesh-io/promptbridge/internal/xmap"
)

type cached struct {
	re  *regexp2.Regexp
	err error
}

var globalCache = xmap.New[string, *cached]()

// MatchString reports whether str matches the compiled form of pattern. A
// pattern that fails to compile never matches (the compile error is
// available via CompileError for callers that need to surface it).
func MatchString(pattern, str string) bool {
	c := getOrCompile(pattern)
	if c.err != nil {
		return false
	}

	ok, err := c.re.MatchString(str)
	if err != nil {
		return false
	}

	return ok
}

// CompileError returns the compile error for pattern, if any, so callers can
// distinguish "compiled but didn't match" from "pattern is invalid".
func CompileError(pattern string) error {
	return getOrCompile(pattern).err
}

func getOrCompile(pattern string) *cached {
	if c, ok := globalCache.Load(pattern); ok {
		return c
	}

	re, err := regexp2.Compile(pattern, regexp2.None)

	c := &cached{re: re, err: err}
	globalCache.Store(pattern, c)

	return c
}

// Clear empties the pattern cache. Exposed for tests.
func Clear() {
	globalCache.Clear()
}
