// Package ladder builds and solves a minimum-cost gilt ladder funding a
// schedule of future cash requirements, following the event-driven LP
// construction in the original implementation's BondLadder.
package ladder

import (
	"fmt"
	"sort"
	"time"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/gilts"
	"benritz/gilts/internal/lp"
	"benritz/gilts/internal/prices"
	"benritz/gilts/internal/universe"
	"benritz/gilts/internal/xirr"
)

var (
	ErrEmptySchedule  = fmt.Errorf("ladder: schedule is empty")
	ErrNoCashFlows    = fmt.Errorf("ladder: instrument has no remaining cash flows")
	ErrTaxBookkeeping = fmt.Errorf("ladder: tax bookkeeping invariant violated")
	ErrResidualCash   = fmt.Errorf("ladder: solved ladder left unexplained residual cash")
)

// ScheduleEntry is one future cash requirement: amount in real terms if
// Options.IndexLinked, otherwise nominal.
type ScheduleEntry struct {
	Date   time.Time
	Amount float64
}

// Schedule is a chronologically ascending list of cash requirements.
type Schedule []ScheduleEntry

// Options controls how a ladder is built.
type Options struct {
	// IndexLinked restricts the candidate universe to index-linked gilts
	// and restates the schedule and cash-flow table in real terms.
	IndexLinked bool
	// MarginalIncomeTax, if > 0, enables UK income-tax timing on coupon
	// and interest income (tax year ends 5 April, paid the following
	// 31 January).
	MarginalIncomeTax float64
	// InterestRate is the rate credited on idle cash balances.
	InterestRate float64
	// LagYears bounds which gilts are considered and, if > 0, enables
	// mid-life sales ahead of a gilt's final ex-dividend window.
	LagYears int
	// StressRate is the yield used to reprice a holding at an
	// intermediate sale date — a conservative assumption that the market
	// could move against the seller before the sale.
	StressRate float64
}

const defaultStressRate = 0.10

type eventKind int

const (
	cashFlowKind eventKind = iota
	consumptionKind
	taxYearEndKind
	taxPaymentKind
)

type event struct {
	date        time.Time
	description Description
	kind        eventKind
	consumption float64
	incoming    lp.Term
	income      lp.Term
}

// Holding is one gilt position the solved ladder buys.
type Holding struct {
	Gilt            gilts.Instrument
	TIDM            string
	CleanPrice      float64
	DirtyPrice      float64
	InitialQuantity lp.Var
}

type cashFlowRow struct {
	date        time.Time
	description Description
	incoming    lp.Term
	outgoing    lp.Term
	balance     lp.Term
	income      lp.Term
}

// CashFlowRow is one realised row of the solved ladder's cash-flow table.
// Incoming/Outgoing/Income are nil when the event carried no such field.
type CashFlowRow struct {
	Date        time.Time
	Description string
	Incoming    *float64
	Outgoing    *float64
	Balance     float64
	Income      *float64
}

// BuyRow is one line of the solved ladder's buy list, plus the trailing
// Cash and Total summary rows (which carry only Instrument and Cost).
type BuyRow struct {
	Instrument string
	TIDM       string
	CleanPrice *float64
	DirtyPrice *float64
	GRY        *float64
	Quantity   *float64
	Cost       float64
}

// Result is a fully solved and realised ladder.
type Result struct {
	BuyList        []BuyRow
	CashFlows      []CashFlowRow
	TotalCost      float64
	WithdrawalRate float64
	NetYield       float64
}

// Solver builds and solves a ladder against a gilt universe and price
// book for a given schedule.
type Solver struct {
	issued   *universe.Issued
	prices   *prices.PriceBook
	schedule Schedule
	opts     Options
	holidays *calendar.Holidays
	now      time.Time
}

// New builds a Solver. now is the valuation date ("today"); it is passed
// in explicitly, rather than read from the clock, so a solve is
// reproducible.
func New(issued *universe.Issued, priceBook *prices.PriceBook, schedule Schedule, opts Options, holidays *calendar.Holidays, now time.Time) *Solver {
	if opts.StressRate == 0 {
		opts.StressRate = defaultStressRate
	}
	return &Solver{issued: issued, prices: priceBook, schedule: schedule, opts: opts, holidays: holidays, now: now}
}

type transaction struct {
	date   time.Time
	amount float64
}

// Solve builds the LP, solves it, and realises the result into real
// numbers. An infeasible schedule (it cannot be funded from the
// available universe) surfaces lp.ErrInfeasible.
func (s *Solver) Solve() (*Result, error) {
	if len(s.schedule) == 0 {
		return nil, ErrEmptySchedule
	}

	today := s.now
	first := s.schedule[0]
	daysToFirst := first.Date.Sub(today).Hours() / 24
	yearlyConsumption := first.Amount * 365.25 / daysToFirst

	prob := lp.NewProblem("Ladder")

	rpiSeries := s.issued.RPISeries()
	var baseRPI float64
	if s.opts.IndexLinked {
		var err error
		baseRPI, err = rpiSeries.Extrapolate(today, gilts.DefaultInflationRate)
		if err != nil {
			return nil, err
		}
	}

	var events []*event
	var transactions []transaction

	for _, sch := range s.schedule {
		amount := sch.Amount
		if s.opts.IndexLinked {
			proj, err := rpiSeries.Extrapolate(sch.Date, gilts.DefaultInflationRate)
			if err != nil {
				return nil, err
			}
			amount = amount * proj / baseRPI
		}
		events = append(events, &event{date: sch.Date, description: StaticDescription("Withdrawal"), kind: consumptionKind, consumption: amount})
		transactions = append(transactions, transaction{sch.Date, amount})
	}
	lastConsumption := s.schedule[len(s.schedule)-1].Date

	if s.opts.MarginalIncomeTax > 0 {
		d := time.Date(today.Year(), time.April, 5, 0, 0, 0, 0, today.Location())
		for d.Before(today) {
			d = time.Date(d.Year()+1, time.April, 5, 0, 0, 0, 0, d.Location())
		}
		for {
			taxYear := fmt.Sprintf("%d/%02d", d.Year()-1, (d.Year())%100)
			events = append(events, &event{date: d, description: StaticDescription(fmt.Sprintf("Tax year %s end", taxYear)), kind: taxYearEndKind})
			d2 := time.Date(d.Year()+1, time.January, 31, 0, 0, 0, 0, d.Location())
			events = append(events, &event{date: d2, description: StaticDescription(fmt.Sprintf("Tax for year %s", taxYear)), kind: taxPaymentKind})
			if !d.Before(lastConsumption) {
				break
			}
			d = time.Date(d.Year()+1, d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		}
	}

	initialCash := prob.NewVar("initial_cash")
	totalCost := lp.Sum(initialCash)

	settlementDate := s.holidays.NextBusinessDay(today)

	kind := universe.Conventional
	if s.opts.IndexLinked {
		kind = universe.IndexLinked
	}

	var holdings []*Holding
	for _, g := range s.issued.Filter(kind, settlementDate) {
		maturity := g.Maturity()
		if !maturity.After(settlementDate) {
			continue
		}
		// Gilts maturing beyond the schedule's reach (plus the sale lag,
		// LagYears) can never be redeemed inside the ladder's lifetime.
		if maturity.After(calendar.ShiftYear(lastConsumption, s.opts.LagYears)) {
			continue
		}

		isin := g.ISIN()
		tidm, err := s.prices.LookupTIDM(isin)
		if err != nil {
			continue
		}
		cleanPrice, err := s.prices.GetPrice(tidm)
		if err != nil {
			return nil, err
		}

		accruedInterest, err := g.AccruedInterest(settlementDate)
		if err != nil {
			return nil, err
		}
		dirtyPrice, err := g.DirtyPrice(cleanPrice, settlementDate)
		if err != nil {
			return nil, err
		}
		ytm, err := g.YTM(dirtyPrice, settlementDate)
		if err != nil {
			return nil, err
		}

		quantityVar := prob.NewVar(tidm)
		totalCost = totalCost.Add(quantityVar.Scale(dirtyPrice))

		holding := &Holding{Gilt: g, TIDM: tidm, CleanPrice: cleanPrice, DirtyPrice: dirtyPrice, InitialQuantity: quantityVar}

		cashFlows, err := g.CashFlows(settlementDate)
		if err != nil {
			return nil, err
		}
		if len(cashFlows) == 0 {
			return nil, ErrNoCashFlows
		}

		consumptionDates := make([]time.Time, len(s.schedule))
		for i, sch := range s.schedule {
			consumptionDates[i] = sch.Date
		}

		var quantity lp.Term = quantityVar
		income := lp.Scale(quantityVar, -accruedInterest)

		for _, cf := range cashFlows[:len(cashFlows)-1] {
			d, amount := cf.Date, cf.Value

			if s.opts.LagYears > 0 {
				for len(consumptionDates) > 0 && !consumptionDates[0].After(d) {
					cd := consumptionDates[0]
					consumptionDates = consumptionDates[1:]

					if maturity.Before(calendar.ShiftYear(cd, s.opts.LagYears)) && !cd.After(g.ExDividendDate(maturity)) {
						sell := prob.NewVar(fmt.Sprintf("Sell_%s_%s", tidm, cd.Format("20060102")))
						quantity = lp.Sub(quantity, sell)
						prob.Require(quantity, lp.GE)

						accruedAtSale, err := g.AccruedInterest(cd)
						if err != nil {
							return nil, err
						}
						income = lp.Add(income, lp.Scale(sell, accruedAtSale))

						refDirtyPrice, err := g.Value(ytm, cd)
						if err != nil {
							return nil, err
						}
						saleDirtyPrice, err := g.Value(s.opts.StressRate, cd)
						if err != nil {
							return nil, err
						}
						discount := saleDirtyPrice/refDirtyPrice - 1
						saleCleanPrice, err := g.CleanPrice(saleDirtyPrice, cd)
						if err != nil {
							return nil, err
						}

						incomingExpr := lp.Scale(sell, saleDirtyPrice)
						thisIncome := income
						soldTIDM, saleDiscount, saleClean := tidm, discount, saleCleanPrice
						desc := NewDescription(func(sol *lp.Solution) string {
							return fmt.Sprintf("*** Sell %.2f x %s @ %.2f (%+.1f%%) ***", sol.Eval(sell), soldTIDM, saleClean, saleDiscount*100)
						})
						events = append(events, &event{date: cd, description: desc, kind: cashFlowKind, incoming: incomingExpr, income: thisIncome})
						income = lp.C(0)
					}
				}
			}

			if !d.After(lastConsumption) {
				income = lp.Add(income, lp.Scale(quantity, amount))
				incomingExpr := lp.Scale(quantity, amount)
				thisIncome := income
				quantityAtCoupon, couponTIDM, couponAmount := quantity, tidm, amount
				desc := NewDescription(func(sol *lp.Solution) string {
					return fmt.Sprintf("Coupon from %.2f x %s @ %.4f", sol.Eval(quantityAtCoupon), couponTIDM, couponAmount)
				})
				events = append(events, &event{date: d, description: desc, kind: cashFlowKind, incoming: incomingExpr, income: thisIncome})
				income = lp.C(0)
			}
		}

		last := cashFlows[len(cashFlows)-1]
		if !maturity.After(lastConsumption) {
			events = append(events, &event{
				date:        maturity,
				description: StaticDescription(fmt.Sprintf("Redemption of %s", tidm)),
				kind:        cashFlowKind,
				incoming:    lp.Scale(quantity, last.Value),
			})
		}

		holdings = append(holdings, holding)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].date.Equal(events[j].date) {
			return events[i].date.Before(events[j].date)
		}
		return events[i].kind < events[j].kind
	})

	var rows []*cashFlowRow
	var balance lp.Term = initialCash
	rows = append(rows, &cashFlowRow{date: today, description: StaticDescription("Deposit"), incoming: initialCash, balance: initialCash})

	const interestDesc = "Interest"

	var accruedIncome lp.Term = lp.C(0)
	var taxDue lp.Term
	prevDate := today

	for _, ev := range events {
		if !ev.date.Equal(prevDate) {
			if s.opts.InterestRate > 0 && !ev.date.After(lastConsumption) {
				proRata := s.opts.InterestRate * ev.date.Sub(prevDate).Hours() / 24 / 365.25
				interest := lp.Scale(balance, proRata)
				balance = lp.Add(balance, interest)
				accruedIncome = lp.Add(accruedIncome, interest)
				rows = append(rows, &cashFlowRow{date: ev.date, description: StaticDescription(interestDesc), incoming: interest, balance: balance, income: interest})
			}
			prevDate = ev.date
		}

		var incoming, outgoing, income lp.Term
		switch ev.kind {
		case consumptionKind:
			outgoing = lp.C(ev.consumption)
		case cashFlowKind:
			incoming = ev.incoming
			income = ev.income
			if income != nil {
				accruedIncome = lp.Add(accruedIncome, income)
			}
		case taxYearEndKind:
			if taxDue != nil {
				return nil, ErrTaxBookkeeping
			}
			taxDue = lp.Scale(accruedIncome, s.opts.MarginalIncomeTax)
			accruedIncome = lp.C(0)
			continue
		case taxPaymentKind:
			if taxDue == nil {
				return nil, ErrTaxBookkeeping
			}
			outgoing = taxDue
			taxDue = nil
		}

		row := &cashFlowRow{date: ev.date, description: ev.description}
		if incoming != nil {
			balance = lp.Add(balance, incoming)
			row.incoming = incoming
		}
		if outgoing != nil {
			v := prob.NewVar(fmt.Sprintf("balance_%s_%d", ev.date.Format("20060102"), len(rows)))
			prob.Require(lp.Sub(v, lp.Sub(balance, outgoing)), lp.EQ)
			balance = v
			row.outgoing = outgoing
		}
		if income != nil {
			row.income = income
		}
		row.balance = balance
		rows = append(rows, row)
	}

	prob.Minimize(totalCost)
	sol, err := prob.Solve()
	if err != nil {
		return nil, err
	}

	if resolvedBalance := sol.Eval(balance); resolvedBalance >= 1.0 {
		return nil, fmt.Errorf("%w: balance %.4f", ErrResidualCash, resolvedBalance)
	}
	if s.opts.MarginalIncomeTax > 0 {
		if resolvedIncome := sol.Eval(accruedIncome); resolvedIncome >= 0.01 {
			return nil, fmt.Errorf("%w: taxable income %.4f", ErrResidualCash, resolvedIncome)
		}
	}

	totalCostValue := sol.Eval(totalCost)

	var buyRows []BuyRow
	for _, h := range holdings {
		quantity := sol.Value(h.InitialQuantity)
		ytm, err := h.Gilt.YTM(h.DirtyPrice, settlementDate)
		if err != nil {
			return nil, err
		}
		if s.opts.IndexLinked {
			ytm = (1.0+ytm)/(1.0+gilts.DefaultInflationRate) - 1.0
		}
		cp, dp := h.CleanPrice, h.DirtyPrice
		buyRows = append(buyRows, BuyRow{
			Instrument: h.Gilt.ShortName(),
			TIDM:       h.TIDM,
			CleanPrice: &cp,
			DirtyPrice: &dp,
			GRY:        &ytm,
			Quantity:   &quantity,
			Cost:       dp * quantity,
		})
	}
	initialCashValue := sol.Value(initialCash)
	buyRows = append(buyRows, BuyRow{Instrument: "Cash", Cost: initialCashValue})
	buyRows = append(buyRows, BuyRow{Instrument: "Total", Cost: totalCostValue})

	var cashFlows []CashFlowRow
	var prevRow *CashFlowRow
	for _, cf := range rows {
		indexRatio := 1.0
		if s.opts.IndexLinked {
			proj, err := rpiSeries.Extrapolate(cf.date, gilts.DefaultInflationRate)
			if err != nil {
				return nil, err
			}
			indexRatio = baseRPI / proj
		}

		var incoming, outgoing, income *float64
		if cf.incoming != nil {
			v := indexRatio * sol.Eval(cf.incoming)
			incoming = &v
		}
		if cf.outgoing != nil {
			v := indexRatio * sol.Eval(cf.outgoing)
			outgoing = &v
		}
		if cf.income != nil {
			v := indexRatio * sol.Eval(cf.income)
			income = &v
		}
		balanceValue := indexRatio * sol.Eval(cf.balance)

		if incoming != nil && *incoming <= 0.005 {
			continue
		}
		if outgoing != nil && *outgoing <= 0.005 {
			continue
		}

		desc := cf.description.Render(sol)

		if desc == interestDesc && prevRow != nil && prevRow.Description == interestDesc {
			prevRow.Date = cf.date
			prevRow.Balance = balanceValue
			if prevRow.Incoming == nil {
				prevRow.Incoming = incoming
			} else if incoming != nil {
				sum := *prevRow.Incoming + *incoming
				prevRow.Incoming = &sum
			}
			if prevRow.Income == nil {
				prevRow.Income = income
			} else if income != nil {
				sum := *prevRow.Income + *income
				prevRow.Income = &sum
			}
			continue
		}

		cashFlows = append(cashFlows, CashFlowRow{
			Date:        cf.date,
			Description: desc,
			Incoming:    incoming,
			Outgoing:    outgoing,
			Balance:     balanceValue,
			Income:      income,
		})
		prevRow = &cashFlows[len(cashFlows)-1]
	}

	withdrawalRate := yearlyConsumption / totalCostValue

	transactions = append(transactions, transaction{settlementDate, -totalCostValue})
	sort.SliceStable(transactions, func(i, j int) bool { return transactions[i].date.Before(transactions[j].date) })

	values := make([]float64, len(transactions))
	dates := make([]time.Time, len(transactions))
	for i, tr := range transactions {
		values[i] = tr.amount
		dates[i] = tr.date
	}
	netYield, err := xirr.XIRR(values, dates)
	if err != nil {
		return nil, err
	}

	return &Result{
		BuyList:        buyRows,
		CashFlows:      cashFlows,
		TotalCost:      totalCostValue,
		WithdrawalRate: withdrawalRate,
		NetYield:       netYield,
	}, nil
}
