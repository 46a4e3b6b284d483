package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bher20/waterportal/internal/rates"
)

func newRatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Print the active rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rates.LoadTable(a.cfg.RateScheduleFile)
			if err != nil {
				return fmt.Errorf("load rate table: %w", err)
			}
			return writeRates(cmd.OutOrStdout(), table)
		},
	}
}

func writeRates(out io.Writer, t *rates.Table) error {
	fmt.Fprintf(out, "Rate table %s\n", t.Version())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tBRACKET\tSPAN (cu.m)\tCHARGE")
	for _, s := range t.Schedules() {
		lower := decimal.Zero
		for i, b := range s.Brackets {
			span := "over " + lower.String()
			if b.Ceiling != nil {
				span = lower.String() + "-" + b.Ceiling.String()
				lower = *b.Ceiling
			}
			charge := rates.FormatAmount(b.Rate) + " / " + rates.VolumeUnit
			if b.IsFlat() {
				charge = rates.FormatAmount(*b.Flat) + " flat"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Class, i+1, span, charge)
		}
	}
	return w.Flush()
}
