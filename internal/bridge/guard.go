package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// ErrNotExternal is returned by Guard.Open for URLs that are not http(s).
var ErrNotExternal = errors.New("not an external URL")

// ExternalOpener opens a URL outside the rendered surface, usually in the system browser.
type ExternalOpener interface {
	Open(url string) error
}

// Guard decides what happens to top-level navigations of the rendered surface.
// data: and about: URIs render in place; http(s) URLs are handed to the
// external opener and the in-surface navigation is canceled.
type Guard struct {
	opener ExternalOpener
	logger hclog.Logger
}

// NewGuard creates a navigation guard.
func NewGuard(opener ExternalOpener, logger hclog.Logger) *Guard {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Guard{opener: opener, logger: logger}
}

// BeforeBrowse reports whether the navigation to url must be canceled.
func (g *Guard) BeforeBrowse(url string) bool {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "about:") {
		return false
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if err := g.opener.Open(url); err != nil {
			g.logger.Warn("failed to open URL in system browser", "url", url, "error", err)
		} else {
			g.logger.Info("opened external URL in system browser", "url", url)
		}
		return true
	}

	return false
}

// Open hands url to the external opener when it is an http(s) URL and refuses
// every other scheme, so a document cannot launch arbitrary handlers.
func (g *Guard) Open(url string) error {
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return fmt.Errorf("%w: %q", ErrNotExternal, url)
	}
	return g.opener.Open(url)
}
