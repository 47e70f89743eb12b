// Package specloader loads a declarative spec document from disk in any of
// JSON, YAML, or TOML, resolves its ${ENV:...} placeholders and $ref /
// JSON-pointer references, and hands back the canonical value tree
// (spec.md §4.1). It is grounded on the original loader/resolver pairing:
// format auto-detection with a jsonrepair fallback, then a single
// expand-then-resolve pass guarded against cycles and path traversal.
package specloader

import (
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/internal/xmap"
	"github.com/kesh-io/promptbridge/value"
)

// Options configures a single Load call.
type Options struct {
	// Format forces a document format instead of auto-detecting by
	// extension/content.
	Format Format
	// MaxDepth bounds $ref resolution depth. Zero selects the default (10).
	MaxDepth int
	// AllowEnvExpansion disables ${ENV:...} expansion when explicitly set
	// false; defaults to enabled.
	AllowEnvExpansion *bool
	// CustomEnv overrides os.Getenv lookups, used by tests and by callers
	// that want to inject values without touching the process environment.
	CustomEnv map[string]string
}

// Loader loads and resolves spec documents, caching parsed (but not yet
// resolved) file contents by canonical path so that a file referenced from
// several places is only read and parsed once.
type Loader struct {
	rawCache *xmap.Map[string, value.Value]
	group    singleflight.Group
}

// New returns a Loader with an empty cache.
func New() *Loader {
	return &Loader{rawCache: xmap.New[string, value.Value]()}
}

// Load reads path, parses it per opts.Format (or auto-detection), and
// resolves environment placeholders and references relative to path's
// directory.
func (l *Loader) Load(path string, opts Options) (value.Value, error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return value.Value{}, bridgeerr.Wrap(bridgeerr.KindParseError, err, "failed to resolve path")
	}

	content, err := l.loadCanonicalFile(canonical)
	if err != nil {
		return value.Value{}, err
	}

	ctx := NewResolverContext(filepath.Dir(canonical))

	if opts.MaxDepth > 0 {
		ctx.MaxDepth = opts.MaxDepth
	}

	if opts.AllowEnvExpansion != nil {
		ctx.AllowEnvExpansion = *opts.AllowEnvExpansion
	}

	ctx.CustomEnv = opts.CustomEnv

	if err := ctx.pushPath(canonical); err != nil {
		return value.Value{}, err
	}

	defer ctx.popPath()

	return l.resolve(content, ctx)
}

// loadCanonicalFile reads and parses the file at an already-canonicalized
// path, serving from cache when possible and collapsing concurrent loads of
// the same path into one read+parse via singleflight.
func (l *Loader) loadCanonicalFile(canonical string) (value.Value, error) {
	if v, ok := l.rawCache.Load(canonical); ok {
		return v, nil
	}

	result, err, _ := l.group.Do(canonical, func() (any, error) {
		if v, ok := l.rawCache.Load(canonical); ok {
			return v, nil
		}

		raw, err := os.ReadFile(canonical)
		if err != nil {
			return value.Value{}, bridgeerr.Wrap(bridgeerr.KindReferenceError, err, "failed to read "+canonical)
		}

		v, err := parseBytes(raw, detectFormatByExtension(canonical))
		if err != nil {
			return value.Value{}, err
		}

		l.rawCache.Store(canonical, v)

		return v, nil
	})
	if err != nil {
		return value.Value{}, err
	}

	//nolint:forcetypeassert // set by this function's own closure above.
	return result.(value.Value), nil
}
