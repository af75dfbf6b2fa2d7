package storefront

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Accept headers sent by the StoreFront web UI.
const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptXML  = "application/xml, text/xml, */*; q=0.01"
	acceptJSON = "application/json, text/javascript, */*; q=0.01"
)

// Client talks to one StoreFront store on behalf of one Session.
type Client struct {
	baseURL    *url.URL // always ends in "/"
	referer    string   // portal URL as configured
	session    *Session
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client with a fresh Session for portalURL.
func NewClient(portalURL string, o *options) (*Client, error) {
	base, err := parsePortalURL(portalURL)
	if err != nil {
		return nil, err
	}
	session, err := NewSession(base)
	if err != nil {
		return nil, err
	}

	httpClient := o.httpClient
	if httpClient == nil {
		transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
		if o.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		} else if o.caCert != "" {
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM([]byte(o.caCert)) {
				return nil, &ConfigError{Field: "ca_cert", Reason: "no PEM certificates found"}
			}
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
		httpClient = &http.Client{Transport: transport}
	}
	// Each run gets its own jar; copy so a caller-supplied client is untouched.
	hc := *httpClient
	hc.Jar = session

	return &Client{
		baseURL:    base,
		referer:    portalURL,
		session:    session,
		httpClient: &hc,
		logger:     o.logger,
	}, nil
}

func parsePortalURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ConfigError{Field: "portal URL", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigError{Field: "portal URL", Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return nil, &ConfigError{Field: "portal URL", Reason: "missing host"}
	}
	u.RawQuery, u.Fragment = "", ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	return u, nil
}

// Session returns the cookie store used by this client.
func (c *Client) Session() *Session { return c.session }

// resolve turns a portal-relative path into an absolute URL. A leading
// slash is relative to the store, not the host; absolute URLs pass through.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	u := *c.baseURL
	u.Path += strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return &u, nil
}

// request describes a single portal call.
type request struct {
	method   string
	path     string
	endpoint string // name used in errors and logs
	action   string // verb in status errors, "fetching" when empty
	header   http.Header
	query    url.Values
	form     url.Values
}

// do executes r and returns the response body. Statuses >= 400 become a
// *StatusError naming r.endpoint; transport errors are returned as is.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	u, err := c.resolve(r.path)
	if err != nil {
		return nil, err
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, vs := range r.query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.header {
		req.Header[k] = vs
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("storefront request",
		zap.String("endpoint", r.endpoint),
		zap.String("method", r.method),
		zap.String("url", redactURL(u)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("storefront response",
		zap.String("endpoint", r.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Strings("cookies", c.session.Names()),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{
			Endpoint:   r.endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(data), 200),
			Action:     r.action,
		}
	}
	return data, nil
}

// redactURL hides the CSRF token in logged launch URLs.
func redactURL(u *url.URL) string {
	if u.RawQuery == "" {
		return u.String()
	}
	c := *u
	q := c.Query()
	if q.Has("CsrfToken") {
		q.Set("CsrfToken", "REDACTED")
	}
	c.RawQuery = q.Encode()
	return c.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
