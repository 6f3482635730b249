package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoCodeAlone/bootstrap/registry"
)

func newUnitsCommand(v *viper.Viper, catalog *registry.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List registered units and the candidates found on the search path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, sync, err := newRuntime(cmd, loadSettings(v), catalog)
			if err != nil {
				return err
			}
			defer sync()

			rt.Start(cmd.Context())
			defer rt.Shutdown(cmd.Context())

			out := cmd.OutOrStdout()
			writeCatalog(out, catalog.Units())
			writeCandidates(out, rt.Candidates())
			return nil
		},
	}
}

func writeCatalog(out io.Writer, units []registry.UnitRef) {
	fmt.Fprintf(out, "registered units: %d\n", len(units))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, u := range units {
		d := u.Descriptor()
		priority := "-"
		if d.Priority != nil {
			priority = fmt.Sprint(*d.Priority)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Name, priority, strings.Join(d.Strategies, ","))
	}
	_ = tw.Flush()
}

func writeCandidates(out io.Writer, cm registry.CandidateMap) {
	fmt.Fprintf(out, "indexed contracts: %d\n", cm.Len())
	for _, contract := range cm.Contracts() {
		fmt.Fprintf(out, "  %s\n", contract)
		for _, r := range registry.Select(cm, contract) {
			kind := "implicit"
			if r.Explicit {
				kind = "explicit"
			}
			fmt.Fprintf(out, "    %-40s score=%d (%s, depth %d)\n", r.Unit.Name(), r.Score, kind, r.Depth)
		}
	}
}
