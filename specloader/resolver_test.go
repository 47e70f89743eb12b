package specloader

import (
	"testing"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/value"
)

func TestExpandStringSubstitutesKnownVariable(t *testing.T) {
	ctx := NewResolverContext(".")
	ctx.CustomEnv = map[string]string{"API_HOST": "api.acme.test"}

	got, err := expandString("https://${ENV:API_HOST}/v1", ctx)
	if err != nil {
		t.Fatalf("expandString: %v", err)
	}

	if got != "https://api.acme.test/v1" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandStringUsesDefaultWhenMissing(t *testing.T) {
	ctx := NewResolverContext(".")
	ctx.CustomEnv = map[string]string{}

	got, err := expandString("${ENV:MISSING_VAR:fallback}", ctx)
	if err != nil {
		t.Fatalf("expandString: %v", err)
	}

	if got != "fallback" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandStringFailsWhenMissingWithoutDefault(t *testing.T) {
	ctx := NewResolverContext(".")
	ctx.CustomEnv = map[string]string{}

	_, err := expandString("${ENV:MISSING_VAR}", ctx)
	if err == nil {
		t.Fatalf("expected an error for a missing variable without a default")
	}

	if kind, ok := bridgeerr.KindOf(err); !ok || kind != bridgeerr.KindEnvironmentError {
		t.Fatalf("expected KindEnvironmentError, got %v", err)
	}
}

func TestExpandStringHonorsEscapedBrace(t *testing.T) {
	ctx := NewResolverContext(".")

	got, err := expandString(`\${ENV:NOT_EXPANDED}`, ctx)
	if err != nil {
		t.Fatalf("expandString: %v", err)
	}

	if got != "${ENV:NOT_EXPANDED}" {
		t.Fatalf("got %q", got)
	}
}

func TestResolverContextPushPathDetectsCycle(t *testing.T) {
	ctx := NewResolverContext(".")

	if err := ctx.pushPath("/a/b.json"); err != nil {
		t.Fatalf("pushPath: %v", err)
	}

	if err := ctx.pushPath("/a/c.json"); err != nil {
		t.Fatalf("pushPath: %v", err)
	}

	err := ctx.pushPath("/a/b.json")
	if err == nil {
		t.Fatalf("expected circular reference error")
	}

	if kind, ok := bridgeerr.KindOf(err); !ok || kind != bridgeerr.KindCircularReference {
		t.Fatalf("expected KindCircularReference, got %v", err)
	}
}

func TestResolverContextPushPathDetectsMaxDepth(t *testing.T) {
	ctx := NewResolverContext(".")
	ctx.MaxDepth = 2

	if err := ctx.pushPath("/a.json"); err != nil {
		t.Fatalf("pushPath: %v", err)
	}

	if err := ctx.pushPath("/b.json"); err != nil {
		t.Fatalf("pushPath: %v", err)
	}

	err := ctx.pushPath("/c.json")
	if err == nil {
		t.Fatalf("expected a max-depth error")
	}

	if kind, ok := bridgeerr.KindOf(err); !ok || kind != bridgeerr.KindCircularReference {
		t.Fatalf("expected KindCircularReference, got %v", err)
	}
}

func TestResolverContextIsSafePathRejectsTraversal(t *testing.T) {
	ctx := NewResolverContext("/home/specs/base")

	if !ctx.isSafePath("./models/chat.json") {
		t.Fatalf("expected a same-tree relative path to be safe")
	}

	if ctx.isSafePath("../../etc/passwd") {
		t.Fatalf("expected a parent-escaping path to be unsafe")
	}
}

func TestLoaderResolveRefsReplacesSameFilePointer(t *testing.T) {
	l := New()

	canonical := "/virtual/current.json"
	l.rawCache.Store(canonical, value.ObjectFromPairs(
		value.KV{Key: "defs", Value: value.ObjectFromPairs(
			value.KV{Key: "limits", Value: value.ObjectFromPairs(
				value.KV{Key: "max_tokens", Value: value.Number(4096)},
			)},
		)},
	))

	ctx := NewResolverContext("/virtual")
	if err := ctx.pushPath(canonical); err != nil {
		t.Fatalf("pushPath: %v", err)
	}

	doc := value.ObjectFromPairs(
		value.KV{Key: "limits", Value: value.ObjectFromPairs(
			value.KV{Key: "$ref", Value: value.String("#/defs/limits")},
		)},
	)

	resolved, err := l.resolveRefs(doc, ctx)
	if err != nil {
		t.Fatalf("resolveRefs: %v", err)
	}

	limits, ok := resolved.Field("limits")
	if !ok {
		t.Fatalf("expected limits field")
	}

	maxTokens, ok := limits.Field("max_tokens")
	if !ok {
		t.Fatalf("expected max_tokens field")
	}

	n, _ := maxTokens.AsNumber()
	if n != 4096 {
		t.Fatalf("got %v", n)
	}
}

func TestLoaderLoadResolvesExternalRefAndEnvVar(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir+"/limits.json", `{"max_tokens": 4096}`)
	writeFile(t, dir+"/root.json", `{
		"base_url": "https://${ENV:API_HOST}",
		"limits": {"$ref": "limits.json"}
	}`)

	l := New()

	doc, err := l.Load(dir+"/root.json", Options{CustomEnv: map[string]string{"API_HOST": "api.acme.test"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	baseURL, ok := doc.Field("base_url")
	if !ok {
		t.Fatalf("expected base_url field")
	}

	s, _ := baseURL.AsString()
	if s != "https://api.acme.test" {
		t.Fatalf("got %q", s)
	}

	limits, ok := doc.Field("limits")
	if !ok {
		t.Fatalf("expected limits field")
	}

	maxTokens, ok := limits.Field("max_tokens")
	if !ok {
		t.Fatalf("expected max_tokens field")
	}

	n, _ := maxTokens.AsNumber()
	if n != 4096 {
		t.Fatalf("got %v", n)
	}
}

func TestLoaderLoadDetectsCircularExternalRefs(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir+"/a.json", `{"$ref": "b.json"}`)
	writeFile(t, dir+"/b.json", `{"$ref": "a.json"}`)

	l := New()

	_, err := l.Load(dir+"/a.json", Options{})
	if err == nil {
		t.Fatalf("expected a circular reference error")
	}

	if kind, ok := bridgeerr.KindOf(err); !ok || kind != bridgeerr.KindCircularReference {
		t.Fatalf("expected KindCircularReference, got %v", err)
	}
}

func TestLoaderLoadRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	sub := dir + "/base"

	if err := mkdir(sub); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	writeFile(t, dir+"/secret.json", `{"token": "shh"}`)
	writeFile(t, sub+"/root.json", `{"secret": {"$ref": "../secret.json"}}`)

	l := New()

	_, err := l.Load(sub+"/root.json", Options{})
	if err == nil {
		t.Fatalf("expected a path traversal error")
	}

	if kind, ok := bridgeerr.KindOf(err); !ok || kind != bridgeerr.KindPathTraversal {
		t.Fatalf("expected KindPathTraversal, got %v", err)
	}
}
