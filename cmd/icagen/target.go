package main

import (
	"github.com/spf13/cobra"

	"github.com/rflorenc/storefront-ica-generator/internal/config"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

// targetFlags select a portal and resource. Set flags override the
// config entry named by --portal, which in turn carries the environment.
type targetFlags struct {
	portal   string
	url      string
	domain   string
	username string
	password string
	resource string
	typ      string
	fields   map[string]string
	output   string
	insecure bool
	caCert   string
}

func (f *targetFlags) register(cmd *cobra.Command, withResource bool) {
	fl := cmd.Flags()
	fl.StringVarP(&f.portal, "portal", "p", "", "portal entry from the config file")
	fl.StringVar(&f.url, "url", "", "StoreFront store URL, e.g. https://sf.example.com/Citrix/StoreWeb")
	fl.StringVar(&f.domain, "domain", "", "login domain")
	fl.StringVarP(&f.username, "username", "u", "", "login user")
	fl.StringVar(&f.password, "password", "", "login password (prefer $ICAGEN_PASSWORD)")
	fl.BoolVar(&f.insecure, "insecure", false, "skip TLS certificate verification")
	fl.StringVar(&f.caCert, "ca-cert", "", "PEM bundle to trust instead of the system roots")
	if withResource {
		fl.StringVarP(&f.resource, "resource", "r", "", "resource name")
		fl.StringVarP(&f.typ, "type", "t", "", "resource type (default Citrix.MPS.Desktop with --resource)")
		fl.StringToStringVar(&f.fields, "field", nil, "match an extra listing field, key=value")
		fl.StringVarP(&f.output, "output", "o", "", "write the ICA file here")
	}
}

// resolve applies the set flags on top of the configured target.
func (f *targetFlags) resolve(cmd *cobra.Command, cfg *config.Config) (config.PortalConfig, error) {
	t, err := cfg.Target(f.portal)
	if err != nil {
		return t, err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.URL, f.url)
	set(&t.Domain, f.domain)
	set(&t.Username, f.username)
	set(&t.Password, f.password)
	set(&t.CACert, f.caCert)
	set(&t.Output, f.output)
	set(&t.Resource, f.resource)
	set(&t.Type, f.typ)
	if len(f.fields) > 0 {
		fields := make(map[string]string, len(t.Fields)+len(f.fields))
		for k, v := range t.Fields {
			fields[k] = v
		}
		for k, v := range f.fields {
			fields[k] = v
		}
		t.Fields = fields
	}
	if cmd.Flags().Changed("insecure") {
		t.Insecure = f.insecure
	}
	return t, nil
}

// options turns a target into storefront options.
func (a *app) options(t config.PortalConfig) ([]storefront.Option, error) {
	pem, err := t.CACertPEM()
	if err != nil {
		return nil, err
	}
	log := a.logger
	if t.Name != "" {
		log = log.Named(t.Name)
	}
	return []storefront.Option{
		storefront.WithLogger(log),
		storefront.WithProgress(func(line string) { log.Debug(line) }),
		storefront.WithInsecureTLS(t.Insecure),
		storefront.WithCACert(pem),
		storefront.WithOutputPath(t.Output),
	}, nil
}

func (a *app) generator(t config.PortalConfig) (*storefront.Generator, error) {
	opts, err := a.options(t)
	if err != nil {
		return nil, err
	}
	return storefront.New(t.Credentials(), t.Query(), opts...)
}
