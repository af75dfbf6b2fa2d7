package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// DesktopType is the StoreFront resource type of a published desktop.
const DesktopType = "Citrix.MPS.Desktop"

// Resource is a single entry from the StoreFront Resources/List response.
// Fields the portal sends that have no typed counterpart are kept in Extra.
type Resource struct {
	ID        string                     `json:"id,omitempty"`
	Name      string                     `json:"name"`
	Type      string                     `json:"type,omitempty"`
	LaunchURL string                     `json:"launchurl,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

var resourceFields = map[string]bool{"id": true, "name": true, "type": true, "launchurl": true}

// UnmarshalJSON decodes the typed fields and collects the rest into Extra.
func (r *Resource) UnmarshalJSON(data []byte) error {
	type plain Resource
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if resourceFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*r = Resource(p)
	return nil
}

// MarshalJSON writes Extra back alongside the typed fields.
func (r Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["name"] = r.Name
	if r.ID != "" {
		out["id"] = r.ID
	}
	if r.Type != "" {
		out["type"] = r.Type
	}
	if r.LaunchURL != "" {
		out["launchurl"] = r.LaunchURL
	}
	return json.Marshal(out)
}

// Field returns a passthrough field as a string. JSON strings are unquoted;
// other values are returned in their raw JSON form.
func (r Resource) Field(key string) (string, bool) {
	v, ok := r.Extra[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	return strings.TrimSpace(string(v)), true
}

// ResourceList is the Resources/List response envelope.
type ResourceList struct {
	Resources []Resource `json:"resources"`
}

// ResourceQuery selects a resource from a listing. Empty fields match
// anything; Fields compares passthrough values.
type ResourceQuery struct {
	Name   string            `json:"name,omitempty" yaml:"name"`
	Type   string            `json:"type,omitempty" yaml:"type"`
	Fields map[string]string `json:"fields,omitempty" yaml:"fields"`
}

// DesktopQuery selects a published desktop by name.
func DesktopQuery(name string) ResourceQuery {
	return ResourceQuery{Name: name, Type: DesktopType}
}

// IsZero reports whether the query has no criteria at all.
func (q ResourceQuery) IsZero() bool {
	return q.Name == "" && q.Type == "" && len(q.Fields) == 0
}

// Match reports whether r satisfies every criterion in q.
func (q ResourceQuery) Match(r Resource) bool {
	if q.Name != "" && q.Name != r.Name {
		return false
	}
	if q.Type != "" && q.Type != r.Type {
		return false
	}
	for k, want := range q.Fields {
		got, ok := r.Field(k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (q ResourceQuery) String() string {
	var parts []string
	if q.Name != "" {
		parts = append(parts, "name="+q.Name)
	}
	if q.Type != "" {
		parts = append(parts, "type="+q.Type)
	}
	keys := make([]string, 0, len(q.Fields))
	for k := range q.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+q.Fields[k])
	}
	return strings.Join(parts, ",")
}
