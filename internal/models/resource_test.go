package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `{
  "resources": [
    {"id": "Lab.Desktop", "name": "Lab Desktop", "type": "Citrix.MPS.Desktop",
     "launchurl": "Resources/LaunchIca/Lab.Desktop.ica", "path": "\\Lab", "clienttypes": ["ica30"]},
    {"name": "Notepad", "type": "Citrix.MPS.Application", "launchurl": "Resources/LaunchIca/Notepad.ica", "desktophostname": "vda01"}
  ]
}`

func TestResourceList_Decode(t *testing.T) {
	var list ResourceList
	require.NoError(t, json.Unmarshal([]byte(listing), &list))
	require.Len(t, list.Resources, 2)

	first := list.Resources[0]
	assert.Equal(t, "Lab.Desktop", first.ID)
	assert.Equal(t, "Lab Desktop", first.Name)
	assert.Equal(t, DesktopType, first.Type)
	assert.Equal(t, "Resources/LaunchIca/Lab.Desktop.ica", first.LaunchURL)
	assert.Len(t, first.Extra, 2)
	assert.NotContains(t, first.Extra, "name")

	path, ok := first.Field("path")
	assert.True(t, ok)
	assert.Equal(t, `\Lab`, path)

	clients, ok := first.Field("clienttypes")
	assert.True(t, ok)
	assert.Equal(t, `["ica30"]`, clients)

	_, ok = first.Field("missing")
	assert.False(t, ok)
}

func TestResource_MarshalKeepsExtra(t *testing.T) {
	var list ResourceList
	require.NoError(t, json.Unmarshal([]byte(listing), &list))

	data, err := json.Marshal(list.Resources[1])
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Notepad", back["name"])
	assert.Equal(t, "vda01", back["desktophostname"])
	assert.NotContains(t, back, "id")
}

func TestResourceQuery_Match(t *testing.T) {
	var list ResourceList
	require.NoError(t, json.Unmarshal([]byte(listing), &list))
	desktop, app := list.Resources[0], list.Resources[1]

	tests := []struct {
		name  string
		query ResourceQuery
		res   Resource
		want  bool
	}{
		{"desktop by name and type", DesktopQuery("Lab Desktop"), desktop, true},
		{"type mismatch", DesktopQuery("Notepad"), app, false},
		{"name only", ResourceQuery{Name: "Notepad"}, app, true},
		{"type only", ResourceQuery{Type: "Citrix.MPS.Application"}, app, true},
		{"passthrough field", ResourceQuery{Fields: map[string]string{"desktophostname": "vda01"}}, app, true},
		{"passthrough field missing", ResourceQuery{Fields: map[string]string{"desktophostname": "vda01"}}, desktop, false},
		{"empty matches anything", ResourceQuery{}, desktop, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.query.Match(tc.res))
		})
	}
}

func TestResourceQuery_String(t *testing.T) {
	q := ResourceQuery{Name: "x", Type: "y", Fields: map[string]string{"b": "2", "a": "1"}}
	assert.Equal(t, "name=x,type=y,a=1,b=2", q.String())
	assert.True(t, ResourceQuery{}.IsZero())
	assert.False(t, DesktopQuery("d").IsZero())
}
