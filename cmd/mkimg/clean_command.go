package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete all managed volumes, leaving the workspace reusable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireRoot(); err != nil {
				return err
			}
			ws, err := ctx.workspaceState()
			if err != nil {
				return err
			}
			result, err := ws.Clean(cmd.Context(), false)
			if err != nil {
				return err
			}
			if result.VolumesRemoved == 0 {
				return fmt.Errorf("nothing to clean: no volumes under %s", ws.Root())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d volume(s)\n", result.VolumesRemoved)
			return nil
		},
	}
}

func newDestroyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Remove every managed volume, directory, and file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireRoot(); err != nil {
				return err
			}
			ws, err := ctx.workspaceState()
			if err != nil {
				return err
			}
			result, err := ws.Clean(cmd.Context(), true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.VolumesRemoved > 0 {
				fmt.Fprintf(out, "Removed %d volume(s)\n", result.VolumesRemoved)
			}
			fmt.Fprintf(out, "Destroyed workspace at %s\n", ws.Root())
			return nil
		},
	}
}
