package storefront

import (
	"net/http"
	"net/url"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, raw string) (*Session, *url.URL) {
	t.Helper()
	base, err := parsePortalURL(raw)
	require.NoError(t, err)
	s, err := NewSession(base)
	require.NoError(t, err)
	return s, base
}

func TestSession_TokenAbsent(t *testing.T) {
	s, _ := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	assert.Equal(t, "", s.Token())
	assert.Empty(t, s.Names())
}

func TestSession_TokenFromResponse(t *testing.T) {
	s, base := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "tok-1"}})
	assert.Equal(t, "tok-1", s.Token())
	assert.Equal(t, "sf.lab.local", s.Domain(CSRFCookie))

	// A later response rotates the token.
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "tok-2"}})
	assert.Equal(t, "tok-2", s.Token())
}

func TestSession_DomainAttribute(t *testing.T) {
	s, _ := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	u, _ := url.Parse("https://sf.lab.local/Citrix/StoreWeb/")
	s.SetCookies(u, []*http.Cookie{{Name: CSRFCookie, Value: "t", Domain: ".lab.local", Path: "/"}})
	assert.Equal(t, "lab.local", s.Domain(CSRFCookie))

	s.SeedClientCookies()
	other, _ := url.Parse("https://gw.lab.local/Citrix/StoreWeb/")
	var names []string
	for _, c := range s.Cookies(other) {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "CtxsUserPreferredClient", "seeded cookies follow the CSRF cookie domain")
}

func TestSession_SeedClientCookies(t *testing.T) {
	s, base := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "t"}})
	s.SeedClientCookies()

	want := map[string]string{
		"CtxsPluginAssistantState": "Done",
		"CtxsUserPreferredClient":  "Native",
		"CtxsClientDetectionDon":   "true",
		"CtxsHasUpgradeBeenShown":  "true",
	}
	for name, value := range want {
		got, ok := s.Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, value, got, name)
		assert.Equal(t, "sf.lab.local", s.Domain(name))
	}

	names := s.Names()
	sort.Strings(names)
	assert.Equal(t, []string{
		"CsrfToken",
		"CtxsClientDetectionDon",
		"CtxsHasUpgradeBeenShown",
		"CtxsPluginAssistantState",
		"CtxsUserPreferredClient",
	}, names)
}

func TestSession_SetCookieInvalidIsDropped(t *testing.T) {
	s, base := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "t", Domain: "other.example"}})

	// The jar refused the foreign-domain CSRF cookie; seeding must not fail.
	assert.NotPanics(t, s.SeedClientCookies)
	assert.Equal(t, "", s.Token())
	_, ok := s.Lookup("CtxsUserPreferredClient")
	assert.False(t, ok)
}

func TestSession_IPHost(t *testing.T) {
	s, base := newTestSession(t, "http://127.0.0.1:8080/Citrix/StoreWeb")
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "t"}})
	s.SeedClientCookies()
	v, ok := s.Lookup("CtxsPluginAssistantState")
	assert.True(t, ok)
	assert.Equal(t, "Done", v)
}

func TestSession_TokenRotatedAtDeeperPath(t *testing.T) {
	s, base := newTestSession(t, "https://sf.lab.local/Citrix/StoreWeb")
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "old", Path: "/Citrix/StoreWeb"}})

	// No Path attribute: the jar files it under /Citrix/StoreWeb/Home.
	home, _ := url.Parse("https://sf.lab.local/Citrix/StoreWeb/Home/Configuration")
	s.SetCookies(home, []*http.Cookie{{Name: CSRFCookie, Value: "new"}})
	assert.Equal(t, "new", s.Token())

	v, _ := s.Lookup(CSRFCookie)
	assert.Equal(t, "old", v, "the base path still only sees the first cookie")

	// Rotating again at the base path wins over the deeper cookie.
	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Value: "newest", Path: "/Citrix/StoreWeb"}})
	assert.Equal(t, "newest", s.Token())

	s.SetCookies(base, []*http.Cookie{{Name: CSRFCookie, Path: "/Citrix/StoreWeb", MaxAge: -1}})
	assert.Equal(t, "", s.Token())
}
