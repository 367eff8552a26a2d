package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/lazypower/binder/internal/engine"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newScoreCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score [FILE|-]",
		Short: "Compute staleness, priority, energy and opacity for every atom",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readAtoms(cmd, args)
			if err != nil {
				return err
			}

			var scores map[string]engine.AtomScore
			if o.remote {
				if err := o.remoteReady(cmd); err != nil {
					return err
				}
				scores, err = o.client().Scores(cmd.Context(), in.raw, o.nowPtr())
			} else {
				scores, err = o.engine().Scores(cmd.Context(), in.atoms, o.now())
			}
			if err != nil {
				return err
			}

			if o.jsonOut {
				return writeJSON(out(cmd), scores)
			}
			return renderScores(out(cmd), scores)
		},
	}
}

func renderScores(w io.Writer, scores map[string]engine.AtomScore) error {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data := pterm.TableData{{"ID", "STALENESS", "TIER", "PRIORITY", "ENERGY", "OPACITY"}}
	for _, id := range ids {
		s := scores[id]
		tier, prio := "-", "-"
		if s.PriorityTier != nil {
			tier = string(*s.PriorityTier)
			prio = fmt.Sprintf("%.2f", s.PriorityScore)
		}
		data = append(data, []string{
			id,
			fmt.Sprintf("%.3f", s.Staleness),
			tier,
			prio,
			string(s.Energy),
			fmt.Sprintf("%.2f", s.Opacity),
		})
	}
	return renderTable(w, data)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}
