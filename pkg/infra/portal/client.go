package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultBaseURL = "https://data.kma.go.kr"

	loginPath    = "/login/loginAjax.do"
	downloadPath = "/data/rmt/downloadZip.do"
	refererPath  = "/data/rmt/rmtList.do"

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

type client struct {
	baseURL    string
	loginWait  time.Duration
	httpClient *http.Client
}

// Option configures the portal client
type Option func(*client)

// WithBaseURL points the client at another portal host
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLoginWait sets how long to wait after login before the first request
func WithLoginWait(d time.Duration) Option {
	return func(c *client) {
		c.loginWait = d
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a portal client. Item requests carry the session cookie
// explicitly; the cookie jar is only used to capture it at login.
func NewClient(opts ...Option) interfaces.PortalClient {
	c := &client{
		baseURL:    DefaultBaseURL,
		loginWait:  2 * time.Second,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFactory returns a factory creating an independent client per job
func NewFactory(opts ...Option) interfaces.PortalClientFactory {
	return func() interfaces.PortalClient {
		return NewClient(opts...)
	}
}

// Authenticate posts the login form and returns the portal cookies as a session
func (c *client) Authenticate(ctx context.Context, loginID, password string) (*model.PortalSession, error) {
	logger := ctxlog.From(ctx)
	logger.Info("Logging in to KMA data portal", "login_id", loginID)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cookie jar")
	}
	loginClient := *c.httpClient
	loginClient.Jar = jar

	form := url.Values{
		"loginId":    {loginID},
		"passwordNo": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := loginClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(types.ErrAuth, "login request failed", goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(types.ErrAuth, "login rejected", goerr.V("status", resp.StatusCode))
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid portal base URL", goerr.V("base_url", c.baseURL))
	}
	cookie := cookieHeader(jar.Cookies(u))
	if cookie == "" {
		return nil, goerr.Wrap(types.ErrAuth, "login returned no session cookie")
	}

	if c.loginWait > 0 {
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "cancelled while waiting after login")
		case <-time.After(c.loginWait):
		}
	}

	return model.NewPortalSession(cookie, time.Now()), nil
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, fmt.Sprintf("%s=%s", ck.Name, ck.Value))
	}
	return strings.Join(parts, "; ")
}

// SubmitAndFetch registers the item with the request page and then downloads
// the prepared archive. The register response is not inspected.
func (c *client) SubmitAndFetch(ctx context.Context, session *model.PortalSession, product *model.Product, item model.WorkItem) ([]byte, error) {
	logger := ctxlog.From(ctx)

	if !session.Valid() {
		return nil, goerr.Wrap(types.ErrSessionRejected, "session is not valid")
	}

	body := RequestBody(product, item)
	resp, err := c.post(ctx, product.RequestPath, body, c.ajaxHeaders(session))
	if err != nil {
		logger.Warn("Register request failed", "item", item.Label(), "error", err)
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	download := url.Values{"downFile": {item.FileStem() + ".csv"}}
	resp, err = c.post(ctx, downloadPath, download, c.navigationHeaders(session))
	if err != nil {
		return nil, goerr.Wrap(types.ErrPortalItem, "download request failed",
			goerr.V("item", item.Label()), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, goerr.Wrap(types.ErrSessionRejected, "portal rejected session",
			goerr.V("item", item.Label()), goerr.V("status", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, goerr.Wrap(types.ErrPortalItem, "unexpected download status",
			goerr.V("item", item.Label()), goerr.V("status", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(types.ErrPortalItem, "failed to read archive",
			goerr.V("item", item.Label()), goerr.V("cause", err.Error()))
	}

	return data, nil
}

func (c *client) post(ctx context.Context, path string, form url.Values, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("path", path))
	}
	return resp, nil
}
