package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

func (a *app) resourcesCmd() *cobra.Command {
	var flags targetFlags
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Log in and list the resources published to the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			opts, err := a.options(t)
			if err != nil {
				return err
			}
			resources, err := storefront.ListResources(cmd.Context(), t.Credentials(), opts...)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tLAUNCHURL")
			for _, r := range resources {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Type, r.LaunchURL)
			}
			return w.Flush()
		},
	}
	flags.register(cmd, false)
	return cmd
}
