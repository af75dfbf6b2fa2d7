package storefront

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// CSRFCookie is the cookie StoreFront mints its anti-forgery token in.
const CSRFCookie = "CsrfToken"

// clientCookies tell the portal that client detection already ran and the
// native receiver is installed. Login is refused without them.
var clientCookies = []struct{ name, value string }{
	{"CtxsPluginAssistantState", "Done"},
	{"CtxsUserPreferredClient", "Native"},
	{"CtxsClientDetectionDon", "true"},
	{"CtxsHasUpgradeBeenShown", "true"},
}

// Session is the cookie store of a single generation run. It implements
// http.CookieJar and remembers which domain each cookie was issued for.
// A Session must not be shared between runs.
type Session struct {
	base    *url.URL
	jar     *cookiejar.Jar
	domains map[string]string
	token   string // last CsrfToken the jar accepted, at any path
}

// NewSession creates an empty session scoped to the portal base URL.
func NewSession(base *url.URL) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Session{base: base, jar: jar, domains: make(map[string]string)}, nil
}

// SetCookies implements http.CookieJar.
func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		domain := strings.TrimPrefix(c.Domain, ".")
		if domain == "" {
			domain = u.Hostname()
		}
		s.domains[c.Name] = domain
	}
	s.jar.SetCookies(u, cookies)

	for _, c := range cookies {
		if c.Name != CSRFCookie {
			continue
		}
		switch {
		case s.accepted(u, c):
			s.token = c.Value
		case c.MaxAge < 0, !c.Expires.IsZero() && c.Expires.Before(time.Now()):
			s.token = ""
		}
	}
}

// accepted reports whether the jar now holds c as it would be sent to u.
func (s *Session) accepted(u *url.URL, c *http.Cookie) bool {
	for _, stored := range s.jar.Cookies(u) {
		if stored.Name == c.Name && stored.Value == c.Value {
			return true
		}
	}
	return false
}

// Cookies implements http.CookieJar.
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

// Lookup returns the value of the named cookie as it would be sent to the
// portal base URL.
func (s *Session) Lookup(name string) (string, bool) {
	for _, c := range s.jar.Cookies(s.base) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Domain returns the domain the named cookie was issued for.
func (s *Session) Domain(name string) string {
	return s.domains[name]
}

// Token returns the most recently issued CSRF token, or "" before the
// portal issued one. A token rotated under a deeper cookie path replaces
// the earlier one even though both stay in the jar.
// Requests made without it are rejected by the portal, not here.
func (s *Session) Token() string {
	return s.token
}

// SetCookie stores a cookie for the portal, scoped to the CSRF cookie's
// domain. Cookies the jar rejects are dropped silently.
func (s *Session) SetCookie(name, value string) {
	s.SetCookies(s.base, []*http.Cookie{{
		Name:   name,
		Value:  value,
		Domain: s.Domain(CSRFCookie),
	}})
}

// SeedClientCookies injects the client detection cookies expected before
// explicit login.
func (s *Session) SeedClientCookies() {
	for _, c := range clientCookies {
		s.SetCookie(c.name, c.value)
	}
}

// Names lists the cookies currently sent to the portal base URL.
func (s *Session) Names() []string {
	cookies := s.jar.Cookies(s.base)
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}
