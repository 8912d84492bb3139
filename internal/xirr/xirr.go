// Package xirr computes the internal rate of return of an irregularly
// dated cash-flow stream (XIRR/XNPV), the convention index-linked gilts
// and the ladder solver's net-yield reporting use in place of the
// conventional gilt's closed-form yield equation.
package xirr

import (
	"errors"
	"math"
	"time"

	"github.com/khezen/rootfinding"
)

const daysPerYear = 365.25

var (
	ErrEmpty         = errors.New("xirr: at least one cash flow required")
	ErrCannotBracket = errors.New("xirr: could not bracket a root")
)

// XNPV discounts values (dated by dates, same length) back to dates[0] at
// the given annual effective rate, actual/365.25.
func XNPV(rate float64, values []float64, dates []time.Time) float64 {
	if len(values) == 0 {
		return 0
	}
	t0 := dates[0]
	sum := 0.0
	for i, v := range values {
		years := dates[i].Sub(t0).Hours() / 24 / daysPerYear
		sum += v / math.Pow(1+rate, years)
	}
	return sum
}

// XIRR solves for the annual effective rate that zeroes XNPV(rate, values,
// dates), by bracketing a root and refining it with Brent's method —
// mirroring chemerysov/gofinance's CashFlows.IRR, adapted from continuous
// to actual/365.25 annual compounding to match the DMO gilt conventions
// used elsewhere in this package.
func XIRR(values []float64, dates []time.Time) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}

	npv := func(r float64) float64 {
		return XNPV(r, values, dates)
	}

	lower := -0.999999
	upper := 0.10
	npvLower := npv(lower)
	npvUpper := npv(upper)

	for npvLower*npvUpper > 0 && upper < 1000 {
		upper *= 2
		npvUpper = npv(upper)
	}
	if npvLower*npvUpper > 0 {
		return 0, ErrCannotBracket
	}

	root, err := rootfinding.Brent(npv, lower, upper, 12)
	if err != nil {
		return 0, err
	}
	return root, nil
}
