package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rflorenc/storefront-ica-generator/internal/config"
	"github.com/rflorenc/storefront-ica-generator/internal/ica"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront/storefronttest"
)

func newTestApp(t *testing.T, env map[string]string) *app {
	t.Helper()
	return &app{
		logger:   zaptest.NewLogger(t),
		lookuper: envconfig.MapLookuper(env),
	}
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func credentialFlags(srv *storefronttest.Server) []string {
	return []string{
		"--url", srv.PortalURL(),
		"--domain", storefronttest.Domain,
		"--username", storefronttest.Username,
		"--password", storefronttest.Password,
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icagen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// recordingLauncher keeps the path and the file contents seen at launch.
type recordingLauncher struct {
	paths    []string
	contents []string
	err      error
}

func (l *recordingLauncher) Launch(ctx context.Context, path string) error {
	l.paths = append(l.paths, path)
	data, _ := os.ReadFile(path)
	l.contents = append(l.contents, string(data))
	return l.err
}

func TestVersion(t *testing.T) {
	out, err := run(t, newTestApp(t, nil), "version")
	require.NoError(t, err)
	assert.Equal(t, "icagen dev (commit: none, built: unknown)\n", out)
}

func TestGenerate_Stdout(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	args := append([]string{"generate", "--resource", "some-desktop-name"}, credentialFlags(srv)...)
	out, err := run(t, newTestApp(t, nil), args...)
	require.NoError(t, err)
	assert.Equal(t, ica.Patch(srv.Descriptor), out)
}

func TestGenerate_EnvAndOutput(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "nested", "desktop.ica")
	a := newTestApp(t, map[string]string{
		"ICAGEN_URL":      srv.PortalURL(),
		"ICAGEN_DOMAIN":   storefronttest.Domain,
		"ICAGEN_USERNAME": storefronttest.Username,
		"ICAGEN_PASSWORD": storefronttest.Password,
	})
	out, err := run(t, a, "generate", "-r", "some-desktop-name", "-o", output)
	require.NoError(t, err)
	assert.Equal(t, output+"\n", out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, ica.Patch(srv.Descriptor), string(data))
}

func TestGenerate_ConfigPortal(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	path := writeConfig(t, `
portals:
  - name: lab
    url: `+srv.PortalURL()+`
    domain: `+storefronttest.Domain+`
    username: `+storefronttest.Username+`
    resource: some-desktop-name
`)
	a := newTestApp(t, map[string]string{"ICAGEN_PASSWORD": storefronttest.Password})
	out, err := run(t, a, "--config", path, "generate", "--portal", "lab")
	require.NoError(t, err)
	assert.Equal(t, ica.Patch(srv.Descriptor), out)

	// A flag overrides the file.
	_, err = run(t, newTestApp(t, map[string]string{"ICAGEN_PASSWORD": storefronttest.Password}),
		"--config", path, "generate", "--portal", "lab", "--resource", "some-other-name", "--type", "Citrix.MPS.Application")
	require.ErrorIs(t, err, storefront.ErrResourceNotFound)
}

func TestTargetFlags_OverrideSelectorFieldsIndividually(t *testing.T) {
	path := writeConfig(t, `
portals:
  - name: apps
    url: https://sf.lab.local/Citrix/StoreWeb
    resource: Lab Desktop
    fields:
      desktophostname: vda01
`)
	cfg, err := config.LoadWith(context.Background(), path, envconfig.MapLookuper(nil))
	require.NoError(t, err)

	flags := targetFlags{
		portal: "apps",
		typ:    "Citrix.MPS.Application",
		fields: map[string]string{"site": "lab"},
	}
	target, err := flags.resolve(&cobra.Command{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "Lab Desktop", target.Resource, "--type keeps the configured resource name")
	assert.Equal(t, "Citrix.MPS.Application", target.Type)
	assert.Equal(t, map[string]string{"desktophostname": "vda01", "site": "lab"}, target.Fields)

	original, err := cfg.FindPortal("apps")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"desktophostname": "vda01"}, original.Fields, "config entry is untouched")
}

func TestGenerate_All(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	dir := t.TempDir()
	entry := func(name string) string {
		return `
  - name: ` + name + `
    url: ` + srv.PortalURL() + `
    domain: ` + storefronttest.Domain + `
    username: ` + storefronttest.Username + `
    password: ` + storefronttest.Password + `
    resource: some-desktop-name
    output: ` + filepath.Join(dir, name+".ica")
	}
	path := writeConfig(t, "concurrency: 2\nportals:"+entry("one")+entry("two")+"\n")

	out, err := run(t, newTestApp(t, nil), "--config", path, "generate", "--all")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "one.ica")+"\n"+filepath.Join(dir, "two.ica")+"\n", out)
	for _, name := range []string{"one", "two"} {
		data, err := os.ReadFile(filepath.Join(dir, name+".ica"))
		require.NoError(t, err)
		assert.Equal(t, ica.Patch(srv.Descriptor), string(data))
	}
}

func TestGenerate_AllRequiresOutput(t *testing.T) {
	path := writeConfig(t, `
portals:
  - name: lab
    url: https://sf.lab.local/Citrix/StoreWeb
    domain: LAB
    username: jdoe
    password: secret
    resource: Lab Desktop
`)
	_, err := run(t, newTestApp(t, nil), "--config", path, "generate", "--all")
	require.ErrorIs(t, err, storefront.ErrConfig)
	assert.ErrorContains(t, err, "portal lab")

	_, err = run(t, newTestApp(t, nil), "generate", "--all")
	assert.EqualError(t, err, "no portals configured")
}

func TestGenerate_MissingDomain(t *testing.T) {
	_, err := run(t, newTestApp(t, nil), "generate",
		"--url", "https://sf.lab.local/Citrix/StoreWeb", "--username", "u", "--password", "p", "-r", "x")
	require.ErrorIs(t, err, storefront.ErrConfig)
	assert.ErrorContains(t, err, "requires domain")
}

func TestResources(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	out, err := run(t, newTestApp(t, nil), append([]string{"resources"}, credentialFlags(srv)...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "some-desktop-name")
	assert.Contains(t, lines[1], "/some-launch-id.ica")
}

func TestLaunch(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	l := &recordingLauncher{}
	a := newTestApp(t, nil)
	a.launch = l
	out, err := run(t, a, append([]string{"launch", "-r", "some-desktop-name"}, credentialFlags(srv)...)...)
	require.NoError(t, err)
	require.Len(t, l.paths, 1)
	path := l.paths[0]
	assert.Empty(t, out)
	assert.Equal(t, ".ica", filepath.Ext(path))
	assert.Equal(t, ica.Patch(srv.Descriptor), l.contents[0])
	assert.NoFileExists(t, path, "the temporary ica file is removed after launch")
}

func TestLaunch_KeepsExplicitOutput(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "desktop.ica")
	l := &recordingLauncher{}
	a := newTestApp(t, nil)
	a.launch = l
	out, err := run(t, a, append([]string{"launch", "-r", "some-desktop-name", "-o", output}, credentialFlags(srv)...)...)
	require.NoError(t, err)
	assert.Equal(t, []string{output}, l.paths)
	assert.Equal(t, output+"\n", out)
	assert.FileExists(t, output)
}

func TestLaunch_Failure(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "desktop.ica")
	a := newTestApp(t, nil)
	a.launch = &recordingLauncher{err: errors.New("exec: wfica: not found")}
	_, err := run(t, a, append([]string{"launch", "-r", "some-desktop-name", "-o", output}, credentialFlags(srv)...)...)
	require.ErrorIs(t, err, storefront.ErrLaunch)
	assert.FileExists(t, output)
}

func TestAPIServer_LoadsPortals(t *testing.T) {
	srv := storefronttest.NewServer()
	defer srv.Close()

	path := writeConfig(t, `
portals:
  - name: lab
    url: `+srv.PortalURL()+`
    domain: `+storefronttest.Domain+`
    username: `+storefronttest.Username+`
    password: `+storefronttest.Password+`
  - name: nocreds
    url: `+srv.PortalURL()+`
    domain: `+storefronttest.Domain+`
`)
	a := newTestApp(t, nil)
	cfg, err := config.LoadWith(context.Background(), path, a.lookuper)
	require.NoError(t, err)
	a.cfg = cfg

	server, err := a.apiServer(context.Background())
	require.NoError(t, err)

	lab := server.Portals.FindByName("lab")
	require.NotNil(t, lab)
	assert.Equal(t, "ok", lab.PingStatus)
	assert.Equal(t, "ok", lab.AuthStatus)

	nocreds := server.Portals.FindByName("nocreds")
	require.NotNil(t, nocreds)
	assert.Equal(t, "ok", nocreds.PingStatus)
	assert.Equal(t, "error", nocreds.AuthStatus)
}
