package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mkimg/internal/services/mkosi"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show initialization status and the image builder's summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := ctx.enforcePreflight(cmd); err != nil {
				return err
			}
			ws, err := ctx.workspaceState()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace: %s\n", ws.Root())
			fmt.Fprintf(out, "Initialized: %s\n", yesNo(ws.IsInitialized()))

			builder, err := mkosi.New(cfg.Builder.Binary, ws.Root(), cfg.Builder.TimeoutSeconds,
				mkosi.WithLogger(ctx.logger()))
			if err != nil {
				return err
			}
			return builder.Summary(cmd.Context(), out)
		},
	}
}
