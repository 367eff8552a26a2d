package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the scoring core (or a server with --remote) responds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.remote {
				fmt.Fprintln(out(cmd), o.engine().Ping())
				return nil
			}
			pong, err := o.client().Ping(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), pong)
			return nil
		},
	}
}
