// Package storefronttest provides a fake StoreFront store for tests.
package storefronttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
)

// StorePath is where the fake store is mounted.
const StorePath = "/Citrix/StoreWeb"

// Defaults served unless a test overrides them.
const (
	Token    = "some-csrf-token"
	Domain   = "some-domain"
	Username = "some-username"
	Password = "some-password"
)

// Call is one request as the fake store received it.
type Call struct {
	Method  string
	Path    string // relative to StorePath, e.g. "Home/Configuration"
	Header  http.Header
	Form    url.Values
	Query   url.Values
	Cookies map[string]string
	// ContentLength as declared by the client.
	ContentLength int64
}

// Server is a scripted StoreFront store.
type Server struct {
	*httptest.Server

	// Settable before the first request.
	Token string
	// RotatedToken, when set, is issued by Home/Configuration without a
	// Path attribute and replaces Token from then on.
	RotatedToken string
	Resources  []models.Resource
	Descriptor string
	// Fail, when set, answers FailStatus for the first request whose path
	// matches after FailSkip matching requests were let through.
	// Fail of "Resources/List" with FailSkip 0 hits the probe.
	Fail       string
	FailSkip   int
	FailStatus int

	mu      sync.Mutex
	calls   []Call
	rotated bool
}

// NewServer starts a fake store with a single desktop.
func NewServer() *Server {
	s := &Server{
		Token: Token,
		Resources: []models.Resource{
			{Name: "some-desktop-name", Type: models.DesktopType, LaunchURL: "/some-launch-id.ica"},
			{Name: "some-desktop-name", Type: "Citrix.MPS.Application", LaunchURL: "wrong"},
			{Name: "some-other-name", Type: models.DesktopType, LaunchURL: "wrong"},
		},
		Descriptor: "[WFClient]\nVersion=2\n[Desktop]\nTWIMode=Off\n",
		FailStatus: http.StatusInternalServerError,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// PortalURL is the store URL a client should be configured with.
func (s *Server) PortalURL() string { return s.URL + StorePath }

// Credentials returns the credentials the store accepts.
func (s *Server) Credentials() models.Credentials {
	return models.Credentials{PortalURL: s.PortalURL(), Domain: Domain, Username: Username, Password: Password}
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Sequence returns "METHOD path" for every call received.
func (s *Server) Sequence() []string {
	calls := s.Calls()
	seq := make([]string, len(calls))
	for i, c := range calls {
		seq[i] = c.Method + " " + c.Path
	}
	return seq
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Route(StorePath, func(r chi.Router) {
		r.Use(s.record)
		r.Use(s.failures)
		r.Get("/", s.mainPage)
		r.Post("/Home/Configuration", s.homeConfiguration)
		r.Post("/Resources/List", s.listResources)
		r.Post("/Authentication/GetAuthMethods", s.authMethods)
		r.Post("/ExplicitAuth/Login", s.login)
		r.Post("/ExplicitAuth/LoginAttempt", s.loginAttempt)
		r.Get("/*", s.launch)
	})
	return r
}

func relPath(r *http.Request) string {
	return strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, StorePath), "/")
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		cookies := map[string]string{}
		for _, c := range r.Cookies() {
			cookies[c.Name] = c.Value
		}
		c := Call{
			Method:        r.Method,
			Path:          relPath(r),
			Header:        r.Header.Clone(),
			Form:          r.PostForm,
			Query:         r.URL.Query(),
			Cookies:       cookies,
			ContentLength: r.ContentLength,
		}
		if c.Path == "" {
			c.Path = "/"
		}
		s.mu.Lock()
		s.calls = append(s.calls, c)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := relPath(r)
		if p == "" {
			p = "/"
		}
		s.mu.Lock()
		fail := s.Fail != "" && s.Fail == p
		if fail && s.FailSkip > 0 {
			s.FailSkip--
			fail = false
		}
		if fail {
			s.Fail = ""
		}
		status := s.FailStatus
		s.mu.Unlock()
		if fail {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentToken is the token the store expects right now.
func (s *Server) CurrentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotated {
		return s.RotatedToken
	}
	return s.Token
}

func (s *Server) setToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "CsrfToken", Value: s.CurrentToken()})
}

func (s *Server) authenticated(r *http.Request) bool {
	c, err := r.Cookie("CtxsAuthId")
	return err == nil && c.Value != ""
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(body))
}

func (s *Server) mainPage(w http.ResponseWriter, r *http.Request) {
	s.setToken(w)
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte("<html><body>StoreFront</body></html>"))
}

func (s *Server) homeConfiguration(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.RotatedToken != "" {
		s.rotated = true
	}
	s.mu.Unlock()
	s.setToken(w)
	writeXML(w, `<clientSettings/>`)
}

func (s *Server) authMethods(w http.ResponseWriter, r *http.Request) {
	writeXML(w, `<authMethods><method name="ExplicitForms" url="ExplicitAuth/Login"/></authMethods>`)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	writeXML(w, `<AuthenticateResponse><Result>more-info</Result></AuthenticateResponse>`)
}

// loginAttempt rejects wrong credentials with 403 and otherwise issues the
// authentication cookie the listing checks for.
func (s *Server) loginAttempt(w http.ResponseWriter, r *http.Request) {
	if r.PostForm.Get("domain") != Domain ||
		r.PostForm.Get("username") != Username ||
		r.PostForm.Get("password") != Password {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "CtxsAuthId", Value: "auth-" + Username, Path: StorePath})
	writeXML(w, `<AuthenticateResponse><Result>success</Result></AuthenticateResponse>`)
}

// listResources answers an empty 200 before login, like the probe expects.
func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ResourceList{Resources: s.Resources})
}

func (s *Server) launch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("CsrfToken") != s.CurrentToken() {
		http.Error(w, "bad csrf token", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/x-ica")
	w.Write([]byte(s.Descriptor))
}
