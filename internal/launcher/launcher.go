// Package launcher opens generated ICA files with a local Citrix client.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultWFICAPath is where the Citrix Workspace app for Linux installs
// its session binary.
const DefaultWFICAPath = "/opt/Citrix/ICAClient/wfica"

// Launcher hands an ICA file to a local client.
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// runner starts a command; replaced in tests.
type runner func(ctx context.Context, name string, args []string, env []string) (stdout, stderr string, err error)

func execRunner(ctx context.Context, name string, args []string, env []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// WFICA runs the Citrix client binary directly.
type WFICA struct {
	Path    string // defaults to DefaultWFICAPath
	Display string // defaults to ":0"
	Logger  *zap.Logger

	run runner
}

// Launch runs wfica on path and waits for it to exit.
func (w *WFICA) Launch(ctx context.Context, path string) error {
	bin := w.Path
	if bin == "" {
		bin = DefaultWFICAPath
	}
	display := w.Display
	if display == "" {
		display = ":0"
	}
	run := w.run
	if run == nil {
		run = execRunner
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stdout, stderr, err := run(ctx, bin, []string{path}, []string{"DISPLAY=" + display})
	logger.Debug("wfica exited",
		zap.String("stdout", strings.TrimSpace(stdout)),
		zap.String("stderr", strings.TrimSpace(stderr)),
		zap.Error(err),
	)
	if err != nil {
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}

// Opener hands the file to the operating system's default handler for
// .ica files.
type Opener struct {
	GOOS   string
	Logger *zap.Logger

	run runner
}

// Command returns the program and arguments that open path on goos.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Launch opens path with the default handler.
func (o *Opener) Launch(ctx context.Context, path string) error {
	run := o.run
	if run == nil {
		run = execRunner
	}
	name, args := Command(o.GOOS, path)
	_, stderr, err := run(ctx, name, args, nil)
	if err != nil {
		if o.Logger != nil {
			o.Logger.Debug("opener failed", zap.String("command", name), zap.String("stderr", stderr), zap.Error(err))
		}
		return fmt.Errorf("%s %s: %w", name, path, err)
	}
	return nil
}

// ForPlatform picks the launcher for goos: the Citrix binary on linux, the
// default file handler everywhere else.
func ForPlatform(goos string, logger *zap.Logger) Launcher {
	if goos == "linux" {
		return &WFICA{Logger: logger}
	}
	return &Opener{GOOS: goos, Logger: logger}
}

// Available reports whether the launcher for goos can be found.
func Available(goos string) bool {
	if goos == "linux" {
		_, err := os.Stat(DefaultWFICAPath)
		return err == nil
	}
	name, _ := Command(goos, "")
	_, err := exec.LookPath(name)
	return err == nil
}
