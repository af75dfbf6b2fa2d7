package storefront

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// FetchDescriptor downloads the ICA file of r. No request is made when r
// has no launch URL.
func (c *Client) FetchDescriptor(ctx context.Context, r models.Resource) (string, error) {
	if r.LaunchURL == "" {
		return "", ErrMissingLaunchURL
	}
	body, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     r.LaunchURL,
		endpoint: "ICA File",
		query: url.Values{
			"CsrfToken":    {c.session.Token()},
			"IsUsingHttps": {"Yes"},
		},
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}
