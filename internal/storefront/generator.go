// Package storefront logs into a Citrix StoreFront store the way its web
// UI does and retrieves ICA launch descriptors.
//
// The portal enforces a fixed request order: the main page mints the CSRF
// cookie, client detection cookies must exist before login, and the
// resource listing only reflects the user after a successful login
// attempt. A Generator replays that order with a fresh Session per run.
package storefront

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/ica"
	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// Launcher hands a written descriptor to a local client.
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// Generator produces patched ICA descriptors for one resource.
type Generator struct {
	creds models.Credentials
	query models.ResourceQuery
	opts  *options
}

// New validates creds and query and returns a Generator. Nothing is sent
// over the network until a Generate method is called.
func New(creds models.Credentials, query models.ResourceQuery, opts ...Option) (*Generator, error) {
	if err := validate(creds, &query); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	o.logger.Debug("storefront generator",
		zap.String("portal", creds.PortalURL),
		zap.String("domain", creds.Domain),
		zap.String("username", creds.Username),
		zap.Stringer("query", query),
	)
	return &Generator{creds: creds, query: query, opts: o}, nil
}

// validate checks required settings in a fixed order so the first missing
// one is reported. A nil query is not checked.
func validate(creds models.Credentials, query *models.ResourceQuery) error {
	switch {
	case strings.TrimSpace(creds.PortalURL) == "":
		return &ConfigError{Field: "portal URL"}
	case creds.Domain == "":
		return &ConfigError{Field: "domain"}
	case query != nil && query.IsZero():
		return &ConfigError{Field: "query"}
	case creds.Username == "":
		return &ConfigError{Field: "username"}
	case creds.Password == "":
		return &ConfigError{Field: "password"}
	}
	_, err := parsePortalURL(creds.PortalURL)
	return err
}

// ListResources logs in with creds and returns the full resource listing.
func ListResources(ctx context.Context, creds models.Credentials, opts ...Option) ([]models.Resource, error) {
	if err := validate(creds, nil); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	c, err := NewClient(creds.PortalURL, o)
	if err != nil {
		return nil, err
	}
	return c.Resources(ctx, creds, o.progress)
}

// Ping checks that the portal main page loads. No credentials are sent.
func Ping(ctx context.Context, portalURL string, opts ...Option) error {
	c, err := NewClient(portalURL, buildOptions(opts))
	if err != nil {
		return err
	}
	return c.Ping(ctx)
}

// Query returns the resource selector.
func (g *Generator) Query() models.ResourceQuery { return g.query }

// OutputPath returns the configured output file, if any.
func (g *Generator) OutputPath() string { return g.opts.outputPath }

func (g *Generator) newClient() (*Client, error) {
	return NewClient(g.creds.PortalURL, g.opts)
}

// Resources logs in and returns the full resource listing.
func (g *Generator) Resources(ctx context.Context) ([]models.Resource, error) {
	c, err := g.newClient()
	if err != nil {
		return nil, err
	}
	return c.Resources(ctx, g.creds, g.opts.progress)
}

// GenerateDescriptor logs in, selects the resource and returns its patched
// ICA descriptor.
func (g *Generator) GenerateDescriptor(ctx context.Context) (string, error) {
	c, err := g.newClient()
	if err != nil {
		return "", err
	}
	resources, err := c.Resources(ctx, g.creds, g.opts.progress)
	if err != nil {
		return "", err
	}
	resource, err := Resolve(resources, g.query)
	if err != nil {
		return "", err
	}
	g.opts.logger.Debug("resource selected",
		zap.String("name", resource.Name),
		zap.String("type", resource.Type),
		zap.String("launchurl", resource.LaunchURL),
	)

	g.opts.progress("Fetching ICA file for " + resource.Name)
	contents, err := c.FetchDescriptor(ctx, resource)
	if err != nil {
		return "", err
	}
	patched := ica.Patch(contents)
	g.opts.logger.Debug("patched ica contents", zap.Int("bytes", len(patched)))
	g.opts.progress("Generated ICA file for " + resource.Name)
	return patched, nil
}

// GenerateDescriptorFile writes the descriptor to the configured output
// path and returns that path.
func (g *Generator) GenerateDescriptorFile(ctx context.Context) (string, error) {
	path := g.opts.outputPath
	if path == "" {
		return "", &ConfigError{Field: "output path"}
	}
	contents, err := g.GenerateDescriptor(ctx)
	if err != nil {
		return "", err
	}
	if err := WriteDescriptor(path, contents); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateAndLaunch writes the descriptor file and hands it to l. Launcher
// failures are logged and reported as ErrLaunch.
func (g *Generator) GenerateAndLaunch(ctx context.Context, l Launcher) (string, error) {
	path, err := g.GenerateDescriptorFile(ctx)
	if err != nil {
		return "", err
	}
	if err := l.Launch(ctx, path); err != nil {
		g.opts.logger.Error("launching ica file", zap.String("path", path), zap.Error(err))
		return path, ErrLaunch
	}
	return path, nil
}

// WriteDescriptor creates path, and any missing parent directories, with
// contents.
func WriteDescriptor(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
