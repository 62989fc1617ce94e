package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/storyloom/storyloom-backend/internal/common"
)

// threadPathRe matches the numeric entry path of a journal thread page,
// e.g. /123456.html, with or without a query string.
var threadPathRe = regexp.MustCompile(`^/\d+\.html$`)

// ValidateOriginURL rejects addresses that are not well-formed thread
// URLs on the supported origin host.
func ValidateOriginURL(raw, originHost string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return common.ErrInvalidOriginURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return common.ErrInvalidOriginURL
	}
	host := strings.ToLower(u.Hostname())
	if host != originHost && !strings.HasSuffix(host, "."+originHost) {
		return common.ErrInvalidOriginURL
	}
	if !threadPathRe.MatchString(u.Path) {
		return common.ErrInvalidOriginURL
	}
	return nil
}

// NormalizeThreadURL rewrites the query string so the origin renders the
// page in a scrapeable form: style=site always, view=flat for flat-mode
// imports (threaded imports use the platform's native threaded view).
func NormalizeThreadURL(raw string, threaded bool) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidOriginURL, err)
	}

	q := u.Query()
	q.Set("style", "site")
	if threaded {
		q.Del("view")
	} else {
		q.Set("view", "flat")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NormalizeIconURL rewrites a userpic URL to its canonical secure form.
// Handles protocol-relative (//host/path) and host-relative (/path)
// links; host-relative links resolve against iconHost.
func NormalizeIconURL(raw, iconHost string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return "https://" + iconHost + raw
	case strings.HasPrefix(raw, "http://"):
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}
