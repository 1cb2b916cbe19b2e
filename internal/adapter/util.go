package adapter

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// cleanText unescapes HTML entities and collapses every run of whitespace
// (including newlines) into a single space.
func cleanText(content string) string {
	return strings.Join(strings.Fields(html.UnescapeString(content)), " ")
}

// orDefault returns s trimmed, or fallback when s is blank.
func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

// absoluteURL resolves ref against base. Root-relative ("/jobs/1") and
// protocol-relative ("//host/jobs/1") references pick up the base origin;
// absolute references are returned unchanged.
func absoluteURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty link")
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", fmt.Errorf("cannot resolve %q against base %q", ref, base)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// withQuery returns rawURL with params merged into its query string and the
// page parameter set to page.
func withQuery(rawURL string, params url.Values, pageParam string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing page url %q: %w", rawURL, err)
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set(pageParam, fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// mergeParams overlays override onto defaults. A key present in override
// replaces every default value for that key.
func mergeParams(defaults, override map[string][]string) url.Values {
	merged := make(url.Values, len(defaults)+len(override))
	for k, vs := range defaults {
		merged[k] = append([]string(nil), vs...)
	}
	for k, vs := range override {
		merged[k] = append([]string(nil), vs...)
	}
	return merged
}

// mergeHeaders overlays override onto defaults.
func mergeHeaders(defaults, override map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(override))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
