package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mkimg/internal/compress"
	"mkimg/internal/logging"
	"mkimg/internal/pipeline"
	"mkimg/internal/services/mkosi"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build an image and compress it into a sendstream artifact",
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

			logger := ctx.logger()
			client, err := ctx.volumeClient()
			if err != nil {
				return err
			}
			ws, err := ctx.workspaceState()
			if err != nil {
				return err
			}
			builder, err := mkosi.New(cfg.Builder.Binary, ws.Root(), cfg.Builder.TimeoutSeconds,
				mkosi.WithLogger(logger))
			if err != nil {
				return err
			}
			compressor, err := compress.ForConfig(cfg)
			if err != nil {
				return err
			}
			streams, err := compress.NewPipeline(client, compressor, cfg.Compress.TimeoutSeconds,
				compress.WithLogger(logging.NewComponentLogger(logger, "compress")))
			if err != nil {
				return err
			}
			orch, err := pipeline.New(ws, builder, client, streams, pipeline.WithLogger(logger))
			if err != nil {
				return err
			}

			result, err := orch.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Build %s complete in %s\n", result.ID, result.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "Artifact: %s\n", result.ArtifactPath)
			return nil
		},
	}
}
