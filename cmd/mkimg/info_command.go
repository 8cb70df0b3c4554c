package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mkimg/internal/workspace"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List managed volumes and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if !ws.IsInitialized() {
				return nil
			}
			if session, ok := workspace.NewBuildLock(ws).CurrentSession(); ok {
				fmt.Fprintf(out, "Build session: %s (started %s)\n",
					session.Token, session.StartedAt.Format(time.RFC3339))
			}

			rows, err := collectInfoRows(ws)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No volumes or artifacts")
				return nil
			}

			if stdoutIsTerminal(out) {
				fmt.Fprintln(out, renderTable([]string{"KIND", "NAME", "DETAIL"}, rows))
				return nil
			}
			writePlainRows(out, rows)
			return nil
		},
	}
}

func collectInfoRows(ws *workspace.Workspace) ([][]string, error) {
	volumes, err := ws.ListVolumes()
	if err != nil {
		return nil, err
	}
	failedIDs, err := ws.FailedBuilds()
	if err != nil {
		return nil, err
	}
	failed := make(map[string]bool, len(failedIDs))
	for _, id := range failedIDs {
		failed[id] = true
	}

	rows := make([][]string, 0, len(volumes))
	for _, id := range volumes {
		detail := ""
		if failed[id] {
			detail = "failed"
		}
		rows = append(rows, []string{"volume", id, detail})
	}

	entries, err := os.ReadDir(ws.Path(workspace.DirStreams))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		detail := ""
		if info, err := entry.Info(); err == nil {
			detail = humanSize(info.Size())
		}
		rows = append(rows, []string{"artifact", entry.Name(), detail})
	}
	return rows, nil
}

func writePlainRows(w io.Writer, rows [][]string) {
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", row[0], row[1], row[2])
	}
}

// stdoutIsTerminal reports whether output is an interactive terminal; table
// rendering is skipped for pipes and test buffers.
func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
