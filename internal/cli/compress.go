package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lazypower/binder/internal/engine"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newCompressCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compress [FILE|-]",
		Short: "List stale or orphaned atoms that are candidates for archival",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readAtoms(cmd, args)
			if err != nil {
				return err
			}

			var cands []engine.CompressionCandidate
			if o.remote {
				if err := o.remoteReady(cmd); err != nil {
					return err
				}
				cands, err = o.client().Compression(cmd.Context(), in.raw, o.nowPtr())
				if err != nil {
					return err
				}
			} else {
				cands = o.engine().Compression(in.atoms, o.now())
			}

			if o.jsonOut {
				return writeJSON(out(cmd), cands)
			}
			if len(cands) == 0 {
				fmt.Fprintln(out(cmd), "nothing to compress")
				return nil
			}

			updated := make(map[string]float64, len(in.atoms))
			for _, a := range in.atoms {
				updated[a.ID] = a.UpdatedAt
			}
			now := time.UnixMilli(int64(o.now()))

			data := pterm.TableData{{"ID", "LAST EDIT", "STALENESS", "REASON"}}
			for _, c := range cands {
				edited := time.UnixMilli(int64(updated[c.ID]))
				data = append(data, []string{
					c.ID,
					humanize.RelTime(edited, now, "ago", "from now"),
					fmt.Sprintf("%.3f", c.Staleness),
					c.Reason,
				})
			}
			return renderTable(out(cmd), data)
		},
	}
}
