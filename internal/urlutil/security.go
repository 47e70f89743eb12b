// Package urlutil provides small URL helpers shared by the schema validator
// and spec loader.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// SecurityClass classifies a URL by scheme family and transport security,
// mirroring the plain/secure, http/ws distinction providers must share
// between their base_url and endpoint paths.
type SecurityClass string

const (
	SecurityHTTPPlain  SecurityClass = "http"
	SecurityHTTPSecure SecurityClass = "https"
	SecurityWSPlain    SecurityClass = "ws"
	SecurityWSSecure   SecurityClass = "wss"
	SecurityUnknown    SecurityClass = "unknown"
)

// ClassifyURL returns the SecurityClass of a URL based on its scheme.
func ClassifyURL(raw string) (SecurityClass, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return SecurityUnknown, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http":
		return SecurityHTTPPlain, nil
	case "https":
		return SecurityHTTPSecure, nil
	case "ws":
		return SecurityWSPlain, nil
	case "wss":
		return SecurityWSSecure, nil
	default:
		return SecurityUnknown, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, raw)
	}
}

// SameClass reports whether two URLs share the same SecurityClass.
func SameClass(a, b string) (bool, error) {
	ca, err := ClassifyURL(a)
	if err != nil {
		return false, err
	}

	cb, err := ClassifyURL(b)
	if err != nil {
		return false, err
	}

	return ca == cb, nil
}

// NormalizeBaseURL trims a trailing slash and, unless the URL is marked as
// raw with a trailing "#", appends a version segment when it isn't already
// present. Adapted from the chat-completion outbound transformer's base URL
// normalization, generalized to providers beyond one vendor's chat API.
func NormalizeBaseURL(raw, version string) string {
	if raw == "" {
		return ""
	}

	if before, ok := strings.CutSuffix(raw, "#"); ok {
		return strings.TrimRight(before, "/")
	}

	trimmed := strings.TrimRight(raw, "/")

	if version == "" {
		return trimmed
	}

	if strings.HasSuffix(trimmed, "/"+version) || strings.Contains(trimmed, "/"+version+"/") {
		return trimmed
	}

	return trimmed + "/" + version
}
