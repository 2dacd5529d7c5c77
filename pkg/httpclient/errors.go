package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// secretParams are query parameters whose values never appear in error text.
var secretParams = []string{"client_id"}

const redacted = "REDACTED"

// HTTPError carries status and body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, RedactURL(e.URL), e.StatusCode, snippet(e.Body, 300))
}

// RedactURL masks credential query values in rawURL. Unparseable input is returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	q := u.Query()
	masked := false
	for _, key := range secretParams {
		if q.Has(key) {
			q.Set(key, redacted)
			masked = true
		}
	}
	if !masked {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// redactTransportError masks the request URL net/http embeds in transport errors
func redactTransportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = RedactURL(uerr.URL)
	}
	return err
}

// StatusCode returns the status of err when it wraps an *HTTPError, or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
