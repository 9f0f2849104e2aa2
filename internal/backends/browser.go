package backends

import (
	"context"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"omnisearch/internal/config"
)

// browserMaxChars bounds how much rendered page text a browser invocation
// may return.
const browserMaxChars = 4000

// Browser renders the configured page in headless Chrome with the query
// appended as ?q=, and returns the visible body text. Useful for sources
// that only expose a JavaScript-rendered search UI.
func Browser(ctx context.Context, query string, cfg config.BackendConfig) (string, error) {
	target := cfg.Endpoint
	if u, err := url.Parse(cfg.Endpoint); err == nil {
		q := u.Query()
		q.Set("q", query)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	body, err := page.Element("body")
	if err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}
	text, err := body.Text()
	if err != nil {
		return "", &TransportError{Backend: cfg.Name, Err: err}
	}

	text = collapseSpace(text)
	if text == "" {
		return "No content rendered for this query.", nil
	}
	return truncate(text, browserMaxChars), nil
}
