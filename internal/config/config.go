package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// DefaultListen is the API listen address when nothing else sets one.
const DefaultListen = ":8080"

// PortalConfig represents a pre-configured StoreFront target in the
// config file.
type PortalConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Domain   string `yaml:"domain"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Insecure bool   `yaml:"insecure"`
	CACert   string `yaml:"ca_cert"` // PEM bundle path

	// Resource selection. A bare resource name selects a desktop.
	Resource string            `yaml:"resource"`
	Type     string            `yaml:"type"`
	Fields   map[string]string `yaml:"fields"`

	Output string `yaml:"output"`
}

// Query builds the resource selector for this target.
func (p PortalConfig) Query() models.ResourceQuery {
	q := models.ResourceQuery{Name: p.Resource, Type: p.Type, Fields: p.Fields}
	if q.Type == "" && q.Name != "" && len(q.Fields) == 0 {
		q.Type = models.DesktopType
	}
	return q
}

// Credentials returns the login tuple for this target.
func (p PortalConfig) Credentials() models.Credentials {
	return models.Credentials{PortalURL: p.URL, Domain: p.Domain, Username: p.Username, Password: p.Password}
}

// CACertPEM reads the configured CA bundle, if any.
func (p PortalConfig) CACertPEM() (string, error) {
	if p.CACert == "" {
		return "", nil
	}
	data, err := os.ReadFile(p.CACert)
	if err != nil {
		return "", fmt.Errorf("reading ca_cert %s: %w", p.CACert, err)
	}
	return string(data), nil
}

// Portal converts the target into an API portal entry.
func (p PortalConfig) Portal() (*models.Portal, error) {
	pem, err := p.CACertPEM()
	if err != nil {
		return nil, err
	}
	return &models.Portal{
		Name:     p.Name,
		URL:      p.URL,
		Domain:   p.Domain,
		Username: p.Username,
		Password: p.Password,
		Insecure: p.Insecure,
		CACert:   pem,
	}, nil
}

// Env holds settings read from the environment.
type Env struct {
	Config   string `env:"ICAGEN_CONFIG"`
	Listen   string `env:"ICAGEN_LISTEN"`
	URL      string `env:"ICAGEN_URL"`
	Domain   string `env:"ICAGEN_DOMAIN"`
	Username string `env:"ICAGEN_USERNAME"`
	Password string `env:"ICAGEN_PASSWORD"`
}

// Config holds all configuration (environment + config file). CLI flags
// are applied on top by the commands.
type Config struct {
	Listen      string         `yaml:"listen"`
	Concurrency int            `yaml:"concurrency"`
	Portals     []PortalConfig `yaml:"portals"`

	Env Env `yaml:"-"`
}

// Load reads the environment, then the config file at path (or
// ICAGEN_CONFIG when path is empty). ICAGEN_LISTEN overrides the file;
// credential variables only fill what the file leaves empty.
func Load(ctx context.Context, path string) (*Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	c := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &c.Env,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if path == "" {
		path = c.Env.Config
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}

	if c.Env.Listen != "" {
		c.Listen = c.Env.Listen
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c, nil
}

// loadFile reads a YAML config file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	c.Listen = file.Listen
	c.Concurrency = file.Concurrency
	c.Portals = file.Portals
	for i := range c.Portals {
		c.Portals[i].applyEnv(c.Env)
	}
	return nil
}

// applyEnv fills credentials the file leaves empty, so that passwords can
// stay out of the file.
func (p *PortalConfig) applyEnv(env Env) {
	if p.Domain == "" {
		p.Domain = env.Domain
	}
	if p.Username == "" {
		p.Username = env.Username
	}
	if p.Password == "" {
		p.Password = env.Password
	}
}

// FindPortal returns the configured target with the given name.
func (c *Config) FindPortal(name string) (*PortalConfig, error) {
	for i := range c.Portals {
		if c.Portals[i].Name == name {
			return &c.Portals[i], nil
		}
	}
	return nil, fmt.Errorf("portal %q not found in config", name)
}

// Target returns a copy of the named portal, or, when name is empty, a
// target built from the ICAGEN_* variables alone.
func (c *Config) Target(name string) (PortalConfig, error) {
	if name != "" {
		p, err := c.FindPortal(name)
		if err != nil {
			return PortalConfig{}, err
		}
		return *p, nil
	}
	t := PortalConfig{URL: c.Env.URL}
	t.applyEnv(c.Env)
	return t, nil
}
