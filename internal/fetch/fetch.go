// Package fetch retrieves the small fixed set of remote resources the
// sequencer depends on: vendor install scripts and the canonical shell rc
// file. Fetches are plain GETs with no retry; a response that "succeeds" at
// the transport level but carries an HTML error page is still a failure.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

// maxBodySize bounds how much of a remote resource is read. Installer scripts
// and rc files are tiny; anything larger is suspect.
const maxBodySize = 4 << 20

// Client fetches remote resources over HTTP.
type Client struct {
	http *http.Client
}

// New creates a Client. The timeout applies per request; the sequencer itself
// imposes no additional deadline.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Script fetches an installer script. The body must be usable as shell input:
// not an HTML page, and carrying a shebang or at least plain-text shell
// content. Unusable content is reported as a NetworkError so callers treat it
// exactly like an unreachable endpoint and move on to their fallback.
func (c *Client) Script(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if LooksLikeHTML(body) {
		return nil, vmseederrors.NewNetworkError(url, fmt.Errorf("response is an HTML page, not a script"))
	}
	if !HasShebang(body) {
		return nil, vmseederrors.NewNetworkError(url, fmt.Errorf("response does not start with a shebang"))
	}

	return body, nil
}

// File fetches a configuration file. HTML bodies and empty bodies are
// rejected; anything else is accepted as-is.
func (c *Client) File(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, vmseederrors.NewNetworkError(url, fmt.Errorf("response body is empty"))
	}
	if LooksLikeHTML(body) {
		return nil, vmseederrors.NewNetworkError(url, fmt.Errorf("response is an HTML page"))
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, vmseederrors.NewNetworkError(url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, vmseederrors.NewNetworkError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, vmseederrors.NewNetworkError(url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, vmseederrors.NewNetworkError(url, err)
	}

	return body, nil
}

// LooksLikeHTML sniffs whether content is an HTML document. This is a
// best-effort heuristic: hosting providers serve styled error pages with 200
// status codes, and executing one as a script must never happen.
func LooksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 512)])))
	return strings.HasPrefix(head, "<!doctype") ||
		strings.HasPrefix(head, "<html") ||
		strings.HasPrefix(head, "<head") ||
		strings.HasPrefix(head, "<body")
}

// HasShebang reports whether content begins with an interpreter line.
func HasShebang(body []byte) bool {
	return strings.HasPrefix(strings.TrimLeft(string(body[:min(len(body), 64)]), " \t\r\n"), "#!")
}
