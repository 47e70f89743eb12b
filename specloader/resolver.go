package specloader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/value"
)

// ResolverContext carries the state threaded through one resolve() pass:
// the base directory for relative references, the stack of canonical paths
// currently being resolved (for circular-reference detection), and the
// environment lookup used by ${ENV:...} expansion (spec.md §4.1).
type ResolverContext struct {
	BaseDir           string
	MaxDepth          int
	AllowEnvExpansion bool
	CustomEnv         map[string]string

	stack []string
}

// NewResolverContext returns a context rooted at baseDir with the default
// max depth (10) and environment expansion enabled.
func NewResolverContext(baseDir string) *ResolverContext {
	return &ResolverContext{BaseDir: baseDir, MaxDepth: 10, AllowEnvExpansion: true}
}

func (c *ResolverContext) getEnv(name string) (string, bool) {
	if c.CustomEnv != nil {
		if v, ok := c.CustomEnv[name]; ok {
			return v, true
		}
	}

	return os.LookupEnv(name)
}

func (c *ResolverContext) currentFile() (string, bool) {
	if len(c.stack) == 0 {
		return "", false
	}

	return c.stack[len(c.stack)-1], true
}

// pushPath fails with CircularReference if path is already on the stack or
// the stack would exceed MaxDepth (spec.md §4.1).
func (c *ResolverContext) pushPath(path string) error {
	if len(c.stack) >= c.MaxDepth {
		return bridgeerr.New(bridgeerr.KindCircularReference, "resolution depth exceeds max_depth").WithPath(path)
	}

	for _, p := range c.stack {
		if p == path {
			return bridgeerr.New(bridgeerr.KindCircularReference, "circular reference detected: "+strings.Join(append(c.stack, path), " -> "))
		}
	}

	c.stack = append(c.stack, path)

	return nil
}

func (c *ResolverContext) popPath() {
	if len(c.stack) == 0 {
		return
	}

	c.stack = c.stack[:len(c.stack)-1]
}

// isSafePath reports whether path, once made absolute against BaseDir and
// canonicalized, still falls under BaseDir (spec.md §4.1 path-traversal
// protection).
func (c *ResolverContext) isSafePath(path string) bool {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(c.BaseDir, path)
	}

	canonicalBase, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return false
	}

	canonicalFull, err := filepath.Abs(full)
	if err != nil {
		return false
	}

	canonicalBase = filepath.Clean(canonicalBase)
	canonicalFull = filepath.Clean(canonicalFull)

	return canonicalFull == canonicalBase || strings.HasPrefix(canonicalFull, canonicalBase+string(filepath.Separator))
}

// resolve runs the one-pass env-expansion then $ref-resolution described in
// spec.md §4.1.
func (l *Loader) resolve(v value.Value, ctx *ResolverContext) (value.Value, error) {
	if ctx.AllowEnvExpansion {
		expanded, err := expandEnvVars(v, ctx)
		if err != nil {
			return value.Value{}, err
		}

		v = expanded
	}

	return l.resolveRefs(v, ctx)
}

func expandEnvVars(v value.Value, ctx *ResolverContext) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()

		expanded, err := expandString(s, ctx)
		if err != nil {
			return value.Value{}, err
		}

		return value.String(expanded), nil
	case value.KindObject:
		out := value.Object()

		for _, k := range v.Keys() {
			expandedKey, err := expandString(k, ctx)
			if err != nil {
				return value.Value{}, err
			}

			fv, _ := v.Field(k)

			expandedVal, err := expandEnvVars(fv, ctx)
			if err != nil {
				return value.Value{}, err
			}

			out = out.Set(expandedKey, expandedVal)
		}

		return out, nil
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]value.Value, len(arr))

		for i, item := range arr {
			expanded, err := expandEnvVars(item, ctx)
			if err != nil {
				return value.Value{}, err
			}

			out[i] = expanded
		}

		return value.Array(out...), nil
	default:
		return v, nil
	}
}

// expandString implements spec.md §4.1's ${ENV:NAME} / ${ENV:NAME:default}
// expansion, honoring \${ as a literal escape.
func expandString(s string, ctx *ResolverContext) (string, error) {
	var out strings.Builder

	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\\' && i+1 < len(runes) && runes[i+1] == '$' {
			if i+2 < len(runes) && runes[i+2] == '{' {
				out.WriteString("${")
				i += 2

				continue
			}

			out.WriteRune('\\')
			out.WriteRune('$')
			i++

			continue
		}

		if ch == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			end, depth := i+2, 1

			for end < len(runes) && depth > 0 {
				switch runes[end] {
				case '{':
					depth++
				case '}':
					depth--
				}

				if depth == 0 {
					break
				}

				end++
			}

			if depth != 0 {
				return "", bridgeerr.New(bridgeerr.KindEnvironmentError, "unclosed environment variable reference")
			}

			spec := string(runes[i+2 : end])

			resolved, err := resolveEnvSpec(spec, ctx)
			if err != nil {
				return "", err
			}

			out.WriteString(resolved)
			i = end

			continue
		}

		out.WriteRune(ch)
	}

	return out.String(), nil
}

func resolveEnvSpec(spec string, ctx *ResolverContext) (string, error) {
	rest, ok := strings.CutPrefix(spec, "ENV:")
	if !ok {
		return "", bridgeerr.New(bridgeerr.KindEnvironmentError, "environment variable reference must use the ENV: prefix").WithPath(spec)
	}

	name, defaultValue, hasDefault := rest, "", false
	if idx := strings.Index(rest, ":"); idx >= 0 {
		name, defaultValue, hasDefault = rest[:idx], rest[idx+1:], true
	}

	if v, ok := ctx.getEnv(name); ok {
		return v, nil
	}

	if hasDefault {
		return defaultValue, nil
	}

	return "", bridgeerr.New(bridgeerr.KindEnvironmentError, "environment variable not found and no default provided").WithPath(name)
}

// resolveRefs walks the tree replacing {"$ref": "<ref>"} objects with their
// referent, per spec.md §4.1.
func (l *Loader) resolveRefs(v value.Value, ctx *ResolverContext) (value.Value, error) {
	switch v.Kind() {
	case value.KindObject:
		if refV, ok := v.Field("$ref"); ok && refV.Kind() == value.KindString {
			ref, _ := refV.AsString()
			return l.resolveReference(ref, ctx)
		}

		out := value.Object()

		for _, k := range v.Keys() {
			fv, _ := v.Field(k)

			resolved, err := l.resolveRefs(fv, ctx)
			if err != nil {
				return value.Value{}, err
			}

			out = out.Set(k, resolved)
		}

		return out, nil
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]value.Value, len(arr))

		for i, item := range arr {
			resolved, err := l.resolveRefs(item, ctx)
			if err != nil {
				return value.Value{}, err
			}

			out[i] = resolved
		}

		return value.Array(out...), nil
	default:
		return v, nil
	}
}

func (l *Loader) resolveReference(ref string, ctx *ResolverContext) (value.Value, error) {
	filePart, pointer := splitReference(ref)

	if strings.HasPrefix(ref, "#") {
		current, ok := ctx.currentFile()
		if !ok {
			return value.Value{}, bridgeerr.New(bridgeerr.KindReferenceError, "cannot resolve same-file reference without a current file on the resolution stack").WithPath(ref)
		}

		content, err := l.loadCanonicalFile(current)
		if err != nil {
			return value.Value{}, err
		}

		if pointer == "" {
			return content, nil
		}

		resolved, err := value.JSONPointer(content, pointer)
		if err != nil {
			return value.Value{}, bridgeerr.Wrap(bridgeerr.KindReferenceError, err, "failed to resolve "+ref)
		}

		return resolved, nil
	}

	if !ctx.isSafePath(filePart) {
		return value.Value{}, bridgeerr.New(bridgeerr.KindPathTraversal, "reference escapes the declared base directory").WithPath(filePart)
	}

	absPath := filePart
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(ctx.BaseDir, filePart)
	}

	canonical, err := filepath.Abs(absPath)
	if err != nil {
		return value.Value{}, bridgeerr.Wrap(bridgeerr.KindReferenceError, err, "failed to canonicalize "+filePart)
	}

	if err := ctx.pushPath(canonical); err != nil {
		return value.Value{}, err
	}

	defer ctx.popPath()

	content, err := l.loadCanonicalFile(canonical)
	if err != nil {
		return value.Value{}, err
	}

	childCtx := &ResolverContext{
		BaseDir:           filepath.Dir(canonical),
		MaxDepth:          ctx.MaxDepth,
		AllowEnvExpansion: ctx.AllowEnvExpansion,
		CustomEnv:         ctx.CustomEnv,
		stack:             ctx.stack,
	}

	resolved, err := l.resolveRefs(content, childCtx)
	if err != nil {
		return value.Value{}, err
	}

	if pointer == "" {
		return resolved, nil
	}

	out, err := value.JSONPointer(resolved, pointer)
	if err != nil {
		return value.Value{}, bridgeerr.Wrap(bridgeerr.KindReferenceError, err, "failed to resolve "+ref)
	}

	return out, nil
}

// splitReference splits a reference into its file part and JSON-pointer
// part (without the leading "#").
func splitReference(ref string) (file, pointer string) {
	idx := strings.Index(ref, "#")
	if idx < 0 {
		return ref, ""
	}

	return ref[:idx], ref[idx+1:]
}
