package urls

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize turns a script or link reference found on pageURL into an absolute URL.
// Protocol-relative references get https, root-relative ones get the page origin.
func Normalize(raw, pageURL string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw, nil
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("cannot resolve %q without a base", raw)
	}
	if strings.HasPrefix(raw, "/") {
		return base.Scheme + "://" + base.Host + raw, nil
	}
	return base.ResolveReference(ref).String(), nil
}

// WithQuery returns rawURL with key=value added, replacing any existing value.
func WithQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AppendQuery appends key=value to rawURL without re-encoding the existing query.
func AppendQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
