package storefront

import (
	"net/http"

	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	progress   func(string)
	httpClient *http.Client
	insecure   bool
	caCert     string
	outputPath string
}

// Option configures a Generator.
type Option func(*options)

// WithLogger sets the logger. Requests and responses are logged at debug.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress receives one human readable line per step.
func WithProgress(fn func(string)) Option {
	return func(o *options) { o.progress = fn }
}

// WithHTTPClient uses hc for transport. Its Jar is replaced per run.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(o *options) { o.insecure = insecure }
}

// WithCACert trusts only the PEM bundle pem.
func WithCACert(pem string) Option {
	return func(o *options) { o.caCert = pem }
}

// WithOutputPath sets where GenerateDescriptorFile writes.
func WithOutputPath(path string) Option {
	return func(o *options) { o.outputPath = path }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.progress == nil {
		o.progress = func(string) {}
	}
	return o
}
