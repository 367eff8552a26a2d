package cli

import (
	"fmt"

	"github.com/lazypower/binder/internal/engine"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core := engine.CoreVersion
			if o.remote {
				v, err := o.client().Version(cmd.Context())
				if err != nil {
					return err
				}
				core = v
			}
			fmt.Fprintf(out(cmd), "binder %s (commit: %s, built: %s, core: %s)\n", Version, Commit, BuildDate, core)
			return nil
		},
	}
}

// VersionString returns a formatted version string for use in health checks etc.
func VersionString() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
