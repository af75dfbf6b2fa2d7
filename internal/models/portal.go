package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Credentials identify a user against a StoreFront portal.
type Credentials struct {
	PortalURL string `json:"portal_url" yaml:"url"`
	Domain    string `json:"domain" yaml:"domain"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
}

// Portal represents a user-configured StoreFront store.
type Portal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"` // e.g. https://sf.example.com/Citrix/StoreWeb
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Insecure bool   `json:"insecure"` // skip TLS verification
	CACert   string `json:"ca_cert,omitempty"`

	// Health, populated by reachability checks.
	PingStatus  string     `json:"ping_status"` // "unknown", "ok", "error"
	PingError   string     `json:"ping_error,omitempty"`
	AuthStatus  string     `json:"auth_status"`
	AuthError   string     `json:"auth_error,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
}

// Credentials returns the login tuple for this portal.
func (p *Portal) Credentials() Credentials {
	return Credentials{
		PortalURL: p.URL,
		Domain:    p.Domain,
		Username:  p.Username,
		Password:  p.Password,
	}
}

// MaskedPassword returns a fixed-width placeholder when a password is set.
func (p *Portal) MaskedPassword() string {
	if p.Password == "" {
		return ""
	}
	return "••••••••"
}

// Redacted returns a copy safe to hand to API clients.
func (p *Portal) Redacted() Portal {
	c := *p
	c.Password = p.MaskedPassword()
	return c
}

// PortalStore is an in-memory thread-safe store for portals. It keeps its
// own copies: portals passed in or handed out are never shared with the
// store, so health updates cannot race with readers.
type PortalStore struct {
	mu      sync.RWMutex
	portals map[string]*Portal
}

// NewPortalStore creates an empty portal store.
func NewPortalStore() *PortalStore {
	return &PortalStore{portals: make(map[string]*Portal)}
}

// Create adds a new portal, assigning it a UUID. p receives the ID and
// initial health.
func (s *PortalStore) Create(p *Portal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New().String()
	p.PingStatus = "unknown"
	p.AuthStatus = "unknown"
	c := *p
	s.portals[p.ID] = &c
}

// Get returns a copy of the portal with the given ID, or nil if not found.
func (s *PortalStore) Get(id string) *Portal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portals[id]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// FindByName returns a copy of the first portal with the given name, or nil.
func (s *PortalStore) FindByName(name string) *Portal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.portals {
		if p.Name == name {
			c := *p
			return &c
		}
	}
	return nil
}

// List returns copies of all portals.
func (s *PortalStore) List() []*Portal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Portal, 0, len(s.portals))
	for _, p := range s.portals {
		c := *p
		result = append(result, &c)
	}
	return result
}

// Update replaces an existing portal's settings. An empty password keeps
// the stored one so that redacted listings can be round-tripped.
func (s *PortalStore) Update(p *Portal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.portals[p.ID]
	if !ok {
		return false
	}
	if p.Password == "" || p.Password == old.MaskedPassword() {
		p.Password = old.Password
	}
	p.PingStatus, p.PingError = old.PingStatus, old.PingError
	p.AuthStatus, p.AuthError = old.AuthStatus, old.AuthError
	p.LastChecked = old.LastChecked
	c := *p
	s.portals[p.ID] = &c
	return true
}

// Delete removes a portal by ID.
func (s *PortalStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.portals[id]; !ok {
		return false
	}
	delete(s.portals, id)
	return true
}

// SetHealth records the outcome of a reachability and login check.
func (s *PortalStore) SetHealth(id, pingStatus, pingError, authStatus, authError string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.portals[id]
	if !ok {
		return
	}
	p.PingStatus, p.PingError = pingStatus, pingError
	p.AuthStatus, p.AuthError = authStatus, authError
	now := time.Now()
	p.LastChecked = &now
}
