package main

import (
	"github.com/advdv/brest"
	"github.com/spf13/cobra"
)

func routesCmd() *cobra.Command {
	var static staticFlags

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mux := brest.NewServeMux()
			if err := static.mount(mux); err != nil {
				return err
			}

			return mux.PrintRoutes(cmd.OutOrStdout())
		},
	}

	static.register(cmd)

	return cmd
}
