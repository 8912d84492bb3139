package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"benritz/gilts/internal/ladder"
)

var (
	ladderSchedulePath string
	ladderTax          float64
	ladderInterestRate float64
	ladderLagYears     int
	ladderStressRate   float64
	ladderIndexLinked  bool
	ladderNowStr       string
)

var ladderCmd = &cobra.Command{
	Use:   "ladder <schedule.csv>",
	Short: "Build a bond ladder that funds a withdrawal schedule at minimum cost",
	Long: `ladder reads a withdrawal schedule (date,amount CSV rows) and
solves for the cheapest combination of gilt purchases that funds every
withdrawal, optionally accounting for UK income tax, idle-cash interest
and mid-life sales ahead of the schedule's final reach.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, err := readSchedule(args[0])
		if err != nil {
			return fmt.Errorf("failed to read schedule: %w", err)
		}

		u, err := openUniverse()
		if err != nil {
			return err
		}
		book, err := openPriceBook()
		if err != nil {
			return err
		}

		now := time.Now()
		if ladderNowStr != "" {
			now, err = time.Parse("2006-01-02", ladderNowStr)
			if err != nil {
				return fmt.Errorf("invalid --now %q: %w", ladderNowStr, err)
			}
		}

		opts := ladder.Options{
			IndexLinked:       ladderIndexLinked,
			MarginalIncomeTax: ladderTax,
			InterestRate:      ladderInterestRate,
			LagYears:          ladderLagYears,
			StressRate:        ladderStressRate,
		}

		solver := ladder.New(u, book, schedule, opts, openHolidays(), now)
		result, err := solver.Solve()
		if err != nil {
			return fmt.Errorf("failed to solve ladder: %w", err)
		}

		log.Info().
			Float64("total_cost", result.TotalCost).
			Float64("withdrawal_rate", result.WithdrawalRate).
			Float64("net_yield", result.NetYield).
			Msg("solved ladder")

		printBuyList(result.BuyList)
		fmt.Println()
		printCashFlows(result.CashFlows)

		return nil
	},
}

func readSchedule(path string) (ladder.Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var schedule ladder.Schedule
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "date" {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected date,amount", i+1)
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", i+1, row[0], err)
		}
		var amount float64
		if _, err := fmt.Sscanf(row[1], "%g", &amount); err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", i+1, row[1], err)
		}
		schedule = append(schedule, ladder.ScheduleEntry{Date: date, Amount: amount})
	}

	return schedule, nil
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}

func printBuyList(rows []ladder.BuyRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Instrument", "TIDM", "Clean Price", "Dirty Price", "GRY", "Quantity", "Cost"})
	for _, r := range rows {
		table.Append([]string{
			r.Instrument,
			r.TIDM,
			formatOptional(r.CleanPrice, "%.3f"),
			formatOptional(r.DirtyPrice, "%.3f"),
			formatOptional(r.GRY, "%.4f%%"),
			formatOptional(r.Quantity, "%.2f"),
			fmt.Sprintf("%.2f", r.Cost),
		})
	}
	table.Render()
}

func printCashFlows(rows []ladder.CashFlowRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Description", "Incoming", "Outgoing", "Income", "Balance"})
	for _, r := range rows {
		table.Append([]string{
			r.Date.Format("2006-01-02"),
			r.Description,
			formatOptional(r.Incoming, "%.2f"),
			formatOptional(r.Outgoing, "%.2f"),
			formatOptional(r.Income, "%.2f"),
			fmt.Sprintf("%.2f", r.Balance),
		})
	}
	table.Render()
}

func init() {
	ladderCmd.Flags().Float64Var(&ladderTax, "tax", 0.0, "marginal income tax rate applied to coupon and interest income")
	ladderCmd.Flags().Float64Var(&ladderInterestRate, "interest-rate", 0.0, "annual interest rate credited on idle cash balances")
	ladderCmd.Flags().IntVar(&ladderLagYears, "lag-years", 0, "years of schedule reach beyond which a gilt is sold mid-life rather than held to maturity")
	ladderCmd.Flags().Float64Var(&ladderStressRate, "stress-rate", 0.10, "discount yield applied when pricing a mid-life sale")
	ladderCmd.Flags().BoolVar(&ladderIndexLinked, "index-linked", false, "restrict to index-linked gilts and restate cash flows in real terms")
	ladderCmd.Flags().StringVar(&ladderNowStr, "now", "", "valuation date (YYYY-MM-DD, default today)")
}
