package cli

import (
	"fmt"

	"github.com/lazypower/binder/internal/engine"
	"github.com/spf13/cobra"
)

func newCapsCmd(o *options) *cobra.Command {
	var inboxCap, taskCap uint32

	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show or set the inbox and open task caps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := cmd.Flags().Changed("inbox-cap") || cmd.Flags().Changed("task-cap")
			apply := func(c engine.CapConfig) engine.CapConfig {
				if cmd.Flags().Changed("inbox-cap") {
					c.InboxCap = inboxCap
				}
				if cmd.Flags().Changed("task-cap") {
					c.TaskCap = taskCap
				}
				return c
			}

			var caps engine.CapConfig
			if o.remote {
				if err := o.remoteReady(cmd); err != nil {
					return err
				}
				c := o.client()
				cur, err := c.Caps(cmd.Context())
				if err != nil {
					return err
				}
				caps = cur
				if set {
					caps = apply(cur)
					if err := c.SetCaps(cmd.Context(), caps); err != nil {
						return err
					}
				}
			} else {
				db, err := o.openDB()
				if err != nil {
					return err
				}
				defer db.Close()

				if caps, err = db.GetCapConfig(); err != nil {
					return err
				}
				if set {
					caps = apply(caps)
					if err := db.SetCapConfig(caps); err != nil {
						return err
					}
				}
			}

			if o.jsonOut {
				return writeJSON(out(cmd), caps)
			}
			fmt.Fprintf(out(cmd), "inbox cap: %d (%d-%d)\ntask cap:  %d (%d-%d)\n",
				caps.InboxCap, engine.MinInboxCap, engine.MaxInboxCap,
				caps.TaskCap, engine.MinTaskCap, engine.MaxTaskCap)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&inboxCap, "inbox-cap", 0, "set the inbox cap")
	cmd.Flags().Uint32Var(&taskCap, "task-cap", 0, "set the open task cap")
	return cmd
}
