package gilts

import (
	"fmt"
	"time"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/rpi"
	"benritz/gilts/internal/xirr"
)

// ThreeMonthLagCutover is the first issue date carrying the 3-month
// indexation lag; earlier index-linked gilts use an 8-month lag.
// https://www.dmo.gov.uk/media/0ltegugd/igcalc.pdf
var ThreeMonthLagCutover = time.Date(2005, time.September, 22, 0, 0, 0, 0, time.UTC)

// DefaultInflationRate is the assumed forward RPI growth rate used to
// extrapolate reference RPI and project cash flows beyond the published
// series, when the caller does not supply one explicitly.
const DefaultInflationRate = 0.03

// IndexLinkedGilt is a UK Government bond whose coupon and redemption
// value are each scaled by the index ratio at their own payment date
// (reference RPI then over the base RPI). It composes a plain Gilt for the un-indexed coupon schedule
// and dates, and layers DMO's indexation rules on top.
type IndexLinkedGilt struct {
	Gilt
	baseRPI   float64
	lagMonths int
	rpiSeries *rpi.Series
}

// NewIndexLinkedGilt constructs an index-linked gilt. The indexation lag
// is derived from issueDate per the DMO cutover: 3 months from 2005-09-22
// onward, 8 months before.
func NewIndexLinkedGilt(name, isin string, coupon float64, maturity, issueDate time.Time, baseRPI float64, rpiSeries *rpi.Series, holidays *calendar.Holidays) (*IndexLinkedGilt, error) {
	g, err := NewGilt(name, isin, coupon, maturity, issueDate, holidays)
	if err != nil {
		return nil, err
	}
	lag := 8
	if !issueDate.Before(ThreeMonthLagCutover) {
		lag = 3
	}
	return &IndexLinkedGilt{
		Gilt:      *g,
		baseRPI:   baseRPI,
		lagMonths: lag,
		rpiSeries: rpiSeries,
	}, nil
}

func (g *IndexLinkedGilt) TypeName() string { return "Index-linked" }

// LagMonths returns the indexation lag, 3 or 8.
func (g *IndexLinkedGilt) LagMonths() int { return g.lagMonths }

// RefRPI returns the reference RPI for settlement, rounded to 5 decimal
// places: for a 3-month lag, the day-weighted interpolation between the
// two bracketing monthly RPI observations 3 months prior; for an 8-month
// lag, the single monthly observation 8 months before the next coupon
// date (no interpolation).
// https://www.dmo.gov.uk/media/0ltegugd/igcalc.pdf
func (g *IndexLinkedGilt) RefRPI(settlement time.Time, inflationRate float64) (float64, error) {
	if g.lagMonths == 3 {
		monthIdx := g.rpiSeries.LookupIndex(settlement) - g.lagMonths
		weight := float64(settlement.Day()-1) / float64(calendar.DaysInMonth(settlement.Year(), settlement.Month()))

		rpi0, err := g.rpiSeries.ExtrapolateFromIndex(monthIdx, inflationRate)
		if err != nil {
			return 0, err
		}
		rpi1, err := g.rpiSeries.ExtrapolateFromIndex(monthIdx+1, inflationRate)
		if err != nil {
			return 0, err
		}
		return round(rpi0+weight*(rpi1-rpi0), 5), nil
	}

	_, nextCoupon, err := g.Gilt.PrevNextCouponDate(settlement)
	if err != nil {
		return 0, err
	}
	monthIdx := g.rpiSeries.LookupIndex(nextCoupon) - g.lagMonths
	value, err := g.rpiSeries.ExtrapolateFromIndex(monthIdx, inflationRate)
	if err != nil {
		return 0, err
	}
	return round(value, 5), nil
}

// FixedDate returns the first day of the RPI reference month that will
// determine the index ratio applicable on date, per DMO Annex B.
func (g *IndexLinkedGilt) FixedDate(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	if g.lagMonths == 3 {
		if date.Day() > 1 {
			return calendar.ShiftMonth(d, -2)
		}
		return calendar.ShiftMonth(d, -3)
	}
	return calendar.ShiftMonth(d, -8)
}

// RedemptionFixed returns the RPI reference month that fixes the final
// redemption index ratio.
func (g *IndexLinkedGilt) RedemptionFixed() time.Time {
	return g.FixedDate(g.Maturity())
}

// IsFixed reports whether the RPI series already carries an observation
// for date's reference month, i.e. whether the index ratio applicable to
// date no longer depends on extrapolation.
func (g *IndexLinkedGilt) IsFixed(date time.Time) bool {
	return !g.rpiSeries.LastDate().Before(g.FixedDate(date))
}

// IsRedemptionFixed reports whether the final redemption payment is
// already determined by published RPI data.
func (g *IndexLinkedGilt) IsRedemptionFixed() bool {
	return g.IsFixed(g.Maturity())
}

// IndexRatio returns RefRPI(date)/baseRPI, rounded to 5 decimal places for
// 3-month lag gilts (whose quoted clean price is already real, so the
// ratio must match DMO's own rounding to reconcile); left unrounded for
// 8-month lag gilts.
func (g *IndexLinkedGilt) IndexRatio(date time.Time, inflationRate float64) (float64, error) {
	refRPI, err := g.RefRPI(date, inflationRate)
	if err != nil {
		return 0, err
	}
	ratio := refRPI / g.baseRPI
	if g.lagMonths == 3 {
		ratio = round(ratio, 5)
	}
	return ratio, nil
}

// DirtyPrice overrides Gilt.DirtyPrice: 3-month lag gilts are quoted in
// real terms, so the clean price must be scaled to nominal before adding
// (nominal) accrued interest.
func (g *IndexLinkedGilt) DirtyPrice(cleanPrice float64, settlement time.Time) (float64, error) {
	if g.lagMonths == 3 {
		ratio, err := g.IndexRatio(settlement, DefaultInflationRate)
		if err != nil {
			return 0, err
		}
		cleanPrice *= ratio
	}
	accrued, err := g.AccruedInterest(settlement)
	if err != nil {
		return 0, err
	}
	return cleanPrice + accrued, nil
}

// CleanPrice is the inverse of DirtyPrice.
func (g *IndexLinkedGilt) CleanPrice(dirtyPrice float64, settlement time.Time) (float64, error) {
	accrued, err := g.AccruedInterest(settlement)
	if err != nil {
		return 0, err
	}
	clean := dirtyPrice - accrued
	if g.lagMonths == 3 {
		ratio, err := g.IndexRatio(settlement, DefaultInflationRate)
		if err != nil {
			return 0, err
		}
		clean /= ratio
	}
	return clean, nil
}

// AccruedInterest scales the un-indexed accrued interest by the index
// ratio applicable at settlement.
func (g *IndexLinkedGilt) AccruedInterest(settlement time.Time) (float64, error) {
	accrued, err := g.Gilt.AccruedInterest(settlement)
	if err != nil {
		return 0, err
	}
	ratio, err := g.IndexRatio(settlement, DefaultInflationRate)
	if err != nil {
		return 0, err
	}
	return accrued * ratio, nil
}

// CashFlows scales each un-indexed cash flow by the index ratio applicable
// on its payment date, rounded per DMO's Annex: 6 decimal places for gilts
// issued from 2002 onward, 4 decimal places for earlier issues.
func (g *IndexLinkedGilt) CashFlows(settlement time.Time) ([]CashFlow, error) {
	return g.cashFlows(settlement, DefaultInflationRate)
}

func (g *IndexLinkedGilt) cashFlows(settlement time.Time, inflationRate float64) ([]CashFlow, error) {
	base, err := g.Gilt.CashFlows(settlement)
	if err != nil {
		return nil, err
	}
	decimals := 4
	if !g.IssueDate().Before(time.Date(2002, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		decimals = 6
	}
	flows := make([]CashFlow, 0, len(base))
	for _, cf := range base {
		ratio, err := g.IndexRatio(cf.Date, inflationRate)
		if err != nil {
			return nil, err
		}
		flows = append(flows, CashFlow{Date: cf.Date, Value: round(cf.Value*ratio, decimals)})
	}
	return flows, nil
}

// YTM is computed via XIRR rather than the DMO closed-form: with a
// projected/extrapolated redemption payment the closed-form equation
// doesn't reconcile cleanly against quoted yields (e.g. Tradeweb), so the
// indexed cash-flow stream is discounted directly instead.
func (g *IndexLinkedGilt) YTM(dirtyPrice float64, settlement time.Time) (float64, error) {
	flows, err := g.CashFlows(settlement)
	if err != nil {
		return 0, err
	}
	dates := make([]time.Time, 0, len(flows)+1)
	values := make([]float64, 0, len(flows)+1)
	dates = append(dates, settlement)
	values = append(values, -dirtyPrice)
	for _, cf := range flows {
		dates = append(dates, cf.Date)
		values = append(values, cf.Value)
	}
	return xirr.XIRR(values, dates)
}

// Value returns the present value of the indexed cash flows at the given
// annual rate, discounted actual/365.25 from settlement.
func (g *IndexLinkedGilt) Value(rate float64, settlement time.Time) (float64, error) {
	flows, err := g.CashFlows(settlement)
	if err != nil {
		return 0, err
	}
	dates := make([]time.Time, 0, len(flows)+1)
	values := make([]float64, 0, len(flows)+1)
	dates = append(dates, settlement)
	values = append(values, 0)
	for _, cf := range flows {
		dates = append(dates, cf.Date)
		values = append(values, cf.Value)
	}
	return xnpv(rate, values, dates), nil
}

// ShortName renders a human label like "0.125% IL 2068-03-22".
func (g *IndexLinkedGilt) ShortName() string {
	return fmt.Sprintf("%.3f%% IL %s", g.Coupon(), g.Maturity().Format("2006-01-02"))
}

func round(v float64, decimals int) float64 {
	scale := pow10(decimals)
	return roundHalfAwayFromZero(v*scale) / scale
}

func pow10(n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}
