package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// compose is reserved for differential snapshot composition.
func newComposeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "compose",
		Short:       "Compose differential snapshots (reserved)",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "compose is not implemented")
			return nil
		},
	}
}
