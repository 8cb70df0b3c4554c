package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := ctx.requireRoot(); err != nil {
				return err
			}
			if err := ctx.enforcePreflight(cmd); err != nil {
				return err
			}
			ws, err := ctx.workspaceState()
			if err != nil {
				return err
			}
			if err := ws.Initialize(cmd.Context(), cfg.Builder); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace at %s\n", ws.Root())
			return nil
		},
	}
}
