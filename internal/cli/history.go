package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newHistoryCmd(o *options) *cobra.Command {
	var (
		limit int
		keep  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded entropy snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := o.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if cmd.Flags().Changed("prune") {
				n, err := db.PruneEntropySnapshots(keep)
				if err != nil {
					return err
				}
				o.log.Info("pruned entropy snapshots", "removed", n, "kept", keep)
			}

			snaps, err := db.ListEntropySnapshots(limit)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return writeJSON(out(cmd), snaps)
			}

			now := time.UnixMilli(int64(o.now()))
			data := [][]string{{"WHEN", "SCORE", "LEVEL", "OPEN", "STALE", "UNLINKED", "INBOX"}}
			for _, s := range snaps {
				data = append(data, []string{
					humanize.RelTime(time.UnixMilli(s.ComputedAt), now, "ago", "from now"),
					fmt.Sprintf("%.3f", s.Score),
					string(s.Level),
					fmt.Sprintf("%d/%d", s.OpenTasks, s.TaskCap),
					fmt.Sprint(s.StaleCount),
					fmt.Sprint(s.ZeroLinkCount),
					fmt.Sprintf("%d/%d", s.InboxCount, s.InboxCap),
				})
			}
			return renderTable(out(cmd), pterm.TableData(data))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum snapshots to show")
	cmd.Flags().IntVar(&keep, "prune", 0, "delete all but the newest N snapshots first")
	return cmd
}
