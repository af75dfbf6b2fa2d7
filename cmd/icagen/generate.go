package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/launcher"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		flags targetFlags
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Log in and produce the ICA file for one resource",
		Long: `Logs into the store, selects the resource and prints its ICA file with
the window settings patched. With --output the file is written instead.

--all generates every portal in the config file concurrently; each entry
must set an output path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return a.generateAll(cmd)
			}
			t, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			gen, err := a.generator(t)
			if err != nil {
				return err
			}
			if gen.OutputPath() == "" {
				contents, err := gen.GenerateDescriptor(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), contents)
				return nil
			}
			path, err := gen.GenerateDescriptorFile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&all, "all", false, "generate every portal in the config file")
	cmd.MarkFlagsMutuallyExclusive("all", "portal")
	return cmd
}

func (a *app) generateAll(cmd *cobra.Command) error {
	if len(a.cfg.Portals) == 0 {
		return errors.New("no portals configured")
	}
	gens := make([]*storefront.Generator, 0, len(a.cfg.Portals))
	for _, p := range a.cfg.Portals {
		gen, err := a.generator(p)
		if err != nil {
			return fmt.Errorf("portal %s: %w", p.Name, err)
		}
		if gen.OutputPath() == "" {
			return fmt.Errorf("portal %s: %w", p.Name, &storefront.ConfigError{Field: "output path"})
		}
		gens = append(gens, gen)
	}
	paths, err := storefront.GenerateFiles(cmd.Context(), gens, a.cfg.Concurrency)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func (a *app) launchCmd() *cobra.Command {
	var flags targetFlags
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Generate the ICA file and open it with the Citrix client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			temp := t.Output == ""
			if temp {
				f, err := os.CreateTemp("", "icagen-*.ica")
				if err != nil {
					return fmt.Errorf("creating temp file: %w", err)
				}
				f.Close()
				t.Output = f.Name()
				// The launcher has exited by the time the command returns.
				defer os.Remove(t.Output)
			}
			gen, err := a.generator(t)
			if err != nil {
				return err
			}
			if !launcher.Available(runtime.GOOS) {
				a.logger.Warn("ica client not found, launch will likely fail", zap.String("os", runtime.GOOS))
			}
			path, err := gen.GenerateAndLaunch(cmd.Context(), a.pickLauncher())
			if path != "" && !temp {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return err
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) pickLauncher() storefront.Launcher {
	if a.launch != nil {
		return a.launch
	}
	return launcher.ForPlatform(runtime.GOOS, a.logger)
}
