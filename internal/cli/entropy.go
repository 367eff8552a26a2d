package cli

import (
	"fmt"
	"io"

	"github.com/lazypower/binder/internal/client"
	"github.com/lazypower/binder/internal/engine"
	"github.com/spf13/cobra"
)

func newEntropyCmd(o *options) *cobra.Command {
	var (
		inbox    uint32
		inboxCap uint32
		taskCap  uint32
	)

	cmd := &cobra.Command{
		Use:   "entropy [FILE|-]",
		Short: "Compute the collection health score",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readAtoms(cmd, args)
			if err != nil {
				return err
			}

			var res *client.EntropyResult
			if o.remote {
				if err := o.remoteReady(cmd); err != nil {
					return err
				}
				req := client.EntropyRequest{Atoms: in.raw, InboxCount: inbox, NowMs: o.nowPtr()}
				if cmd.Flags().Changed("inbox-cap") {
					req.InboxCap = &inboxCap
				}
				if cmd.Flags().Changed("task-cap") {
					req.TaskCap = &taskCap
				}
				res, err = o.client().Entropy(cmd.Context(), req)
			} else {
				res, err = localEntropy(cmd, o, in.atoms, inbox, inboxCap, taskCap)
			}
			if err != nil {
				return err
			}

			if o.jsonOut {
				return writeJSON(out(cmd), res)
			}
			return renderEntropy(out(cmd), res)
		},
	}

	cmd.Flags().Uint32Var(&inbox, "inbox", 0, "number of items currently in the inbox")
	cmd.Flags().Uint32Var(&inboxCap, "inbox-cap", 0, "inbox cap (default: stored caps)")
	cmd.Flags().Uint32Var(&taskCap, "task-cap", 0, "open task cap (default: stored caps)")
	cmd.MarkFlagRequired("inbox")
	return cmd
}

// localEntropy computes entropy in-process against the stored caps and
// records the result in the snapshot history.
func localEntropy(cmd *cobra.Command, o *options, atoms []engine.Atom, inbox, inboxCap, taskCap uint32) (*client.EntropyResult, error) {
	db, err := o.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	caps, err := db.GetCapConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("inbox-cap") {
		caps.InboxCap = inboxCap
	}
	if cmd.Flags().Changed("task-cap") {
		caps.TaskCap = taskCap
	}

	now := o.now()
	score := o.engine().Entropy(atoms, inbox, caps.InboxCap, caps.TaskCap, now)
	res := &client.EntropyResult{
		EntropyScore: score,
		InboxCap:     caps.InboxCap,
		TaskCap:      caps.TaskCap,
		InboxStatus:  engine.StatusFor(score.InboxCount, caps.InboxCap),
		TaskStatus:   engine.StatusFor(score.OpenTasks, caps.TaskCap),
	}

	snap, err := db.SaveEntropySnapshot(score, caps, int64(now))
	if err != nil {
		o.log.Warn("save entropy snapshot", "error", err)
	} else {
		res.SnapshotID = snap.ID
	}
	return res, nil
}

func renderEntropy(w io.Writer, r *client.EntropyResult) error {
	_, err := fmt.Fprintf(w,
		"entropy:    %.3f (%s)\n"+
			"open tasks: %d / %d (%s)\n"+
			"inbox:      %d / %d (%s)\n"+
			"stale:      %d\n"+
			"unlinked:   %d\n",
		r.Score, r.Level,
		r.OpenTasks, r.TaskCap, r.TaskStatus,
		r.InboxCount, r.InboxCap, r.InboxStatus,
		r.StaleCount,
		r.ZeroLinkCount,
	)
	return err
}
