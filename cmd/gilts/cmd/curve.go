package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"benritz/gilts/internal/curve"
	"benritz/gilts/internal/universe"
)

var (
	curveKind     string
	curveDateStr  string
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Build a maturity/yield curve from the priced gilt universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := openUniverse()
		if err != nil {
			return err
		}
		book, err := openPriceBook()
		if err != nil {
			return err
		}

		kind, err := parseInstrumentKind(curveKind)
		if err != nil {
			return err
		}

		closeDate := book.AsOf()
		if curveDateStr != "" {
			closeDate, err = time.Parse("2006-01-02", curveDateStr)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", curveDateStr, err)
			}
		}

		points, err := curve.Build(u, book, kind, openHolidays(), closeDate)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"TIDM", "Instrument", "Maturity (yrs)", "Yield"})
		for _, p := range points {
			table.Append([]string{
				p.TIDM,
				p.Instrument,
				fmt.Sprintf("%.2f", p.MaturityYears),
				fmt.Sprintf("%.3f%%", p.Yield*100),
			})
		}
		table.Render()

		return nil
	},
}

func parseInstrumentKind(s string) (universe.InstrumentKind, error) {
	switch s {
	case "", "conventional":
		return universe.Conventional, nil
	case "index-linked":
		return universe.IndexLinked, nil
	default:
		return 0, fmt.Errorf("unknown --kind %q, expected conventional or index-linked", s)
	}
}

func init() {
	curveCmd.Flags().StringVar(&curveKind, "kind", "conventional", "gilt kind: conventional or index-linked")
	curveCmd.Flags().StringVar(&curveDateStr, "date", "", "close-of-business date (YYYY-MM-DD, default the price book's most recent price)")
}
