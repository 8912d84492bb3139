package gilts

import (
	"math"
	"time"
)

// secant finds a root of fn from the two starting points x0 and x1, mirroring
// scipy.optimize.newton's behaviour when called without an analytic
// derivative (the approach the original pricing model relies on for the
// gilt price/yield equation, whose derivative w.r.t. the discount factor
// is unwieldy to carry in closed form).
func secant(fn func(float64) float64, x0, x1, tol float64, maxIter int) (float64, error) {
	f0 := fn(x0)
	for iter := 0; iter < maxIter; iter++ {
		f1 := fn(x1)
		if math.Abs(f1) < tol {
			return x1, nil
		}
		denom := f1 - f0
		if math.Abs(denom) < 1e-14 {
			return 0, ErrYTMDerivativeTooSmall
		}
		x2 := x1 - f1*(x1-x0)/denom
		x0, f0 = x1, f1
		x1 = x2
	}
	return 0, ErrYTMNoConvergence
}

// intPow raises v to a non-negative integer power n.
func intPow(v float64, n int) float64 {
	if n <= 0 {
		return 1
	}
	return math.Pow(v, float64(n))
}

func powFloat(base, exp float64) float64 {
	return math.Pow(base, exp)
}

// vToPowerRS raises discount factor v to the fractional power r/s (days to
// next coupon over the full coupon period).
func vToPowerRS(v float64, r, s int) float64 {
	return math.Pow(v, float64(r)/float64(s))
}

const daysPerYear = 365.25

// xnpv discounts values (dated by dates) back to dates[0] at the given
// annual rate on an actual/365.25 basis. values[0] is conventionally 0 (the
// settlement date carries no cash flow) and is included only to line up
// indices with dates.
func xnpv(rate float64, values []float64, dates []time.Time) float64 {
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

// This package has no XIRR solver of its own: IndexLinkedGilt.YTM calls
// internal/xirr (also used by the ladder solver's net-yield reporting),
// while Gilt.YTM uses the DMO closed-form since conventional gilts pay a
// known fixed coupon on a regular schedule.
