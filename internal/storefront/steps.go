package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// Step names, in execution order.
const (
	StepLoadMainPage         = "loadMainPage"
	StepHomeConfiguration    = "homeConfiguration"
	StepCheckResources       = "checkResources"
	StepGetAuthMethods       = "getAuthMethods"
	StepExplicitLogin        = "explicitLogin"
	StepExplicitLoginAttempt = "explicitLoginAttempt"
	StepListResources        = "listResources"
)

// loginSteps returns the fixed sequence that ends with an authenticated
// resource listing.
func (c *Client) loginSteps(creds models.Credentials) []Step {
	return []Step{
		{StepLoadMainPage, c.loadMainPage},
		{StepHomeConfiguration, c.homeConfiguration},
		discard(Step{StepCheckResources, c.listResources}, c.logger),
		{StepGetAuthMethods, c.getAuthMethods},
		{StepExplicitLogin, c.explicitLogin},
		{StepExplicitLoginAttempt, func(ctx context.Context) (any, error) {
			return c.explicitLoginAttempt(ctx, creds)
		}},
		{StepListResources, c.listResources},
	}
}

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func (c *Client) loadMainPage(ctx context.Context) (any, error) {
	_, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/",
		endpoint: "/",
		action:   "loading",
		header: header(
			"Accept", acceptHTML,
			"Upgrade-Insecure-Requests", "1",
		),
	})
	return nil, err
}

func (c *Client) homeConfiguration(ctx context.Context) (any, error) {
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "Home/Configuration",
		endpoint: "Home/Configuration",
		header: header(
			"Accept", acceptXML,
			"X-Requested-With", "XMLHttpRequest",
			"X-Citrix-IsUsingHTTPS", "Yes",
			"Referer", c.referer,
		),
	})
	return nil, err
}

func (c *Client) getAuthMethods(ctx context.Context) (any, error) {
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "Authentication/GetAuthMethods",
		endpoint: "Authentication/GetAuthMethods",
		header: header(
			"Accept", acceptXML,
			"X-Citrix-IsUsingHTTPS", "Yes",
			"Csrf-Token", c.session.Token(),
			"Referer", c.referer,
		),
	})
	return nil, err
}

func (c *Client) explicitLogin(ctx context.Context) (any, error) {
	c.session.SeedClientCookies()
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "ExplicitAuth/Login",
		endpoint: "ExplicitAuth/Login",
		header: header(
			"Accept", acceptXML,
			"X-Citrix-IsUsingHTTPS", "Yes",
			"Csrf-Token", c.session.Token(),
		),
	})
	return nil, err
}

func (c *Client) explicitLoginAttempt(ctx context.Context, creds models.Credentials) (any, error) {
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "ExplicitAuth/LoginAttempt",
		endpoint: "ExplicitAuth/LoginAttempt",
		header: header(
			"Accept", acceptXML,
			"Accept-Language", "en-US,en;q=0.8",
			"X-Requested-With", "XMLHttpRequest",
			"X-Citrix-IsUsingHTTPS", "Yes",
			"Csrf-Token", c.session.Token(),
			"Referer", c.referer,
		),
		form: url.Values{
			"domain":          {creds.Domain},
			"username":        {creds.Username},
			"password":        {creds.Password},
			"saveCredentials": {"true"},
			"loginBtn":        {"Log On"},
			"StateContext":    {""},
		},
	})
	return nil, err
}

func (c *Client) listResources(ctx context.Context) (any, error) {
	body, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "Resources/List",
		endpoint: "Resources/List",
		header: header(
			"Accept", acceptJSON,
			"X-Citrix-IsUsingHTTPS", "Yes",
			"X-Requested-With", "XMLHttpRequest",
			"Csrf-Token", c.session.Token(),
			"Referer", c.referer,
		),
		form: url.Values{
			"format":          {"json"},
			"resourceDetails": {"Full"},
		},
	})
	if err != nil {
		return nil, err
	}
	var list models.ResourceList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parsing Resources/List response: %w", err)
	}
	return &list, nil
}

// Resources runs the login sequence and returns the authenticated listing.
func (c *Client) Resources(ctx context.Context, creds models.Credentials, progress func(string)) ([]models.Resource, error) {
	result, err := NewPipeline(c.logger, progress, c.loginSteps(creds)...).Run(ctx)
	if err != nil {
		return nil, err
	}
	out, _ := result.Get(StepListResources)
	list, ok := out.(*models.ResourceList)
	if !ok || list == nil {
		return nil, fmt.Errorf("%s produced no listing", StepListResources)
	}
	return list.Resources, nil
}

// Ping loads the main page only, which needs no credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.loadMainPage(ctx)
	return err
}
