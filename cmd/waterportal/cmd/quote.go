package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bher20/waterportal/internal/rates"
)

type quoteOutput struct {
	Consumption     json.Number `json:"consumption"`
	CustomerClass   string      `json:"customer_class"`
	TotalBill       json.Number `json:"total_bill"`
	Breakdown       []string    `json:"breakdown"`
	ScheduleVersion string      `json:"schedule_version"`
}

func newQuoteCmd(a *app) *cobra.Command {
	var (
		class  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "quote <consumption>",
		Short: "Estimate a bill for a consumption in cubic meters",
		Long: `Estimate a water bill using the same calculator as the API.

Examples:
  waterportal quote 15
  waterportal quote 50 --class commercial
  waterportal quote 22.5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rates.LoadTable(a.cfg.RateScheduleFile)
			if err != nil {
				return fmt.Errorf("load rate table: %w", err)
			}
			consumption, err := rates.ParseConsumption(args[0])
			if err != nil {
				return err
			}
			q, err := rates.NewCalculator(table).Calculate(consumption, class)
			if err != nil {
				return err
			}
			if asJSON {
				return writeQuoteJSON(cmd.OutOrStdout(), q)
			}
			writeQuoteText(cmd.OutOrStdout(), q)
			return nil
		},
	}
	cmd.Flags().StringVarP(&class, "class", "c", string(rates.DefaultClass), "customer class (residential, commercial)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON")
	return cmd
}

func writeQuoteJSON(w io.Writer, q *rates.Quote) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(quoteOutput{
		Consumption:     json.Number(q.Consumption.String()),
		CustomerClass:   string(q.CustomerClass),
		TotalBill:       json.Number(q.Total.StringFixed(2)),
		Breakdown:       q.Breakdown,
		ScheduleVersion: q.ScheduleVersion,
	})
}

func writeQuoteText(w io.Writer, q *rates.Quote) {
	fmt.Fprintf(w, "Customer class: %s\n", q.CustomerClass)
	fmt.Fprintf(w, "Consumption:    %s %s\n", q.Consumption.String(), rates.VolumeUnit)
	for _, line := range q.Breakdown {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "Total:          %s\n", rates.FormatAmount(q.Total))
}
