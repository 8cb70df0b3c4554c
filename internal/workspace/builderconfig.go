package workspace

import (
	"fmt"
	"strings"

	"mkimg/internal/config"
)

// RenderBuilderConfig produces the declarative builder configuration written
// to the workspace at init time. The output format is fixed to a plain
// directory tree under the staging area so the pipeline can materialize it
// into a fresh subvolume.
func RenderBuilderConfig(b config.Builder) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Distribution]\n")
	fmt.Fprintf(&sb, "Distribution=%s\n", b.Distribution)
	fmt.Fprintf(&sb, "Release=%s\n\n", b.Release)

	fmt.Fprintf(&sb, "[Output]\n")
	fmt.Fprintf(&sb, "Format=directory\n")
	fmt.Fprintf(&sb, "OutputDirectory=%s\n\n", DirStaging)

	fmt.Fprintf(&sb, "[Packages]\n")
	for i, pkg := range b.Packages {
		if i == 0 {
			fmt.Fprintf(&sb, "Packages=%s\n", pkg)
			continue
		}
		fmt.Fprintf(&sb, "         %s\n", pkg)
	}
	return sb.String()
}
