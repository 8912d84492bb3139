package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/khezen/rootfinding"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"benritz/gilts/internal/gilts"
)

var (
	ytmISIN        string
	ytmName        string
	ytmCoupon      float64
	ytmCleanPrice  float64
	ytmYield       float64
	ytmSettleStr   string
	ytmMaturityStr string
	ytmIssueStr    string
)

var ytmCmd = &cobra.Command{
	Use:   "ytm",
	Short: "Price a conventional gilt and report its yield, accrued interest and coupon schedule",
	Long: `ytm takes a gilt's coupon, issue and maturity dates plus either
a clean price or a yield to maturity, and derives the other one together
with accrued interest and coupon scheduling, using the same DMO-exact
engine (internal/gilts) that backs the ladder and curve commands — so
short and long first coupon periods and ex-dividend trading are priced
consistently everywhere in this tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ytmCleanPrice == 0 && ytmYield == 0 {
			return fmt.Errorf("one of --clean-price or --yield is required")
		}
		if ytmMaturityStr == "" {
			return fmt.Errorf("--maturity-date is required")
		}

		settlementDate, err := parseYTMDate(ytmSettleStr, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --settlement-date: %w", err)
		}
		maturityDate, err := parseYTMDate(ytmMaturityStr, time.Time{})
		if err != nil {
			return fmt.Errorf("invalid --maturity-date: %w", err)
		}
		if maturityDate.Before(settlementDate) {
			return fmt.Errorf("maturity date cannot be before settlement date")
		}
		// Absent an explicit issue date, treat the gilt as long seasoned so
		// it prices as a Standard first period rather than Short/Long.
		issueDate, err := parseYTMDate(ytmIssueStr, shiftYears(maturityDate, -50))
		if err != nil {
			return fmt.Errorf("invalid --issue-date: %w", err)
		}

		g, err := gilts.NewGilt(ytmName, ytmISIN, ytmCoupon, maturityDate, issueDate, openHolidays())
		if err != nil {
			return fmt.Errorf("failed to construct gilt: %w", err)
		}

		var dirtyPrice, cleanPrice, yield float64
		if ytmCleanPrice != 0 {
			cleanPrice = ytmCleanPrice
			dirtyPrice, err = g.DirtyPrice(cleanPrice, settlementDate)
			if err != nil {
				return fmt.Errorf("failed to compute dirty price: %w", err)
			}
			yield, err = g.YTM(dirtyPrice, settlementDate)
			if err != nil {
				return fmt.Errorf("failed to compute yield: %w", err)
			}
		} else {
			targetYield := ytmYield / 100
			dirtyPrice, err = priceForYield(g, settlementDate, targetYield)
			if err != nil {
				return fmt.Errorf("failed to solve for price: %w", err)
			}
			yield = targetYield
			cleanPrice, err = g.CleanPrice(dirtyPrice, settlementDate)
			if err != nil {
				return fmt.Errorf("failed to compute clean price: %w", err)
			}
		}

		accrued, err := g.AccruedInterest(settlementDate)
		if err != nil {
			return fmt.Errorf("failed to compute accrued interest: %w", err)
		}
		prevCoupon, nextCoupon, err := g.PrevNextCouponDate(settlementDate)
		if err != nil {
			return fmt.Errorf("failed to compute coupon dates: %w", err)
		}
		period, err := g.Period(settlementDate)
		if err != nil {
			return fmt.Errorf("failed to classify first coupon period: %w", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Field", "Value"})
		table.Append([]string{"Name", g.Name()})
		table.Append([]string{"ISIN", g.ISIN()})
		table.Append([]string{"Face Value", fmt.Sprintf("%.3f", gilts.FacePrice)})
		table.Append([]string{"Coupon Rate", fmt.Sprintf("%.3f%%", g.Coupon())})
		table.Append([]string{"Issue Date", g.IssueDate().Format("2006-01-02")})
		table.Append([]string{"Settlement Date", settlementDate.Format("2006-01-02")})
		table.Append([]string{"Maturity Date", g.Maturity().Format("2006-01-02")})
		table.Append([]string{"First Coupon Period", period.String()})
		table.Append([]string{"Clean Price", fmt.Sprintf("%.3f", cleanPrice)})
		table.Append([]string{"Dirty Price", fmt.Sprintf("%.3f", dirtyPrice)})
		table.Append([]string{"Accrued Interest", fmt.Sprintf("%.3f", accrued)})
		table.Append([]string{"Previous Coupon Date", prevCoupon.Format("2006-01-02")})
		table.Append([]string{"Next Coupon Date", nextCoupon.Format("2006-01-02")})
		table.Append([]string{"Yield to Maturity", fmt.Sprintf("%.6f%%", yield*100)})
		table.Render()

		return nil
	},
}

// priceForYield brackets and solves for the dirty price whose DMO-exact
// YTM equals target, since the engine only exposes price-to-yield.
func priceForYield(g *gilts.Gilt, settlement time.Time, target float64) (float64, error) {
	fn := func(price float64) float64 {
		y, err := g.YTM(price, settlement)
		if err != nil {
			return 0
		}
		return y - target
	}
	return rootfinding.Brent(fn, 1, 1000, 12)
}

func shiftYears(d time.Time, years int) time.Time {
	return d.AddDate(years, 0, 0)
}

func parseYTMDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", s)
}

func init() {
	ytmCmd.Flags().StringVar(&ytmISIN, "isin", "GB00TESTBOND", "ISIN of the gilt (12 characters)")
	ytmCmd.Flags().StringVar(&ytmName, "name", "Gilt", "display name of the gilt")
	ytmCmd.Flags().Float64Var(&ytmCoupon, "coupon", 0.0, "coupon rate (%) of the bond")
	ytmCmd.Flags().Float64Var(&ytmCleanPrice, "clean-price", 0.0, "clean price of the bond")
	ytmCmd.Flags().Float64Var(&ytmYield, "yield", 0.0, "yield to maturity (%) of the bond")
	ytmCmd.Flags().StringVar(&ytmSettleStr, "settlement-date", "", "settlement date (YYYY-MM-DD, default today)")
	ytmCmd.Flags().StringVar(&ytmMaturityStr, "maturity-date", "", "maturity date (YYYY-MM-DD)")
	ytmCmd.Flags().StringVar(&ytmIssueStr, "issue-date", "", "issue date (YYYY-MM-DD, default 50 years before maturity, i.e. Standard first period)")
	ytmCmd.MarkFlagRequired("coupon")
	ytmCmd.MarkFlagRequired("maturity-date")
}
