package universe

import (
	"fmt"
	"regexp"
)

// couponRe matches the coupon prefix of a DMO instrument name, e.g.
// "0 5/8% Treasury Gilt 2025", "2% Treasury Gilt 2025",
// "3½% Treasury Gilt 2025". Ported from the original implementation's
// regex rather than the Go teacher's narrower one so every fraction form
// DMO actually uses (Unicode glyphs and ASCII n/d forms) is recognised.
var couponRe = regexp.MustCompile(`^(?:([0-9]+) ?)?(|[½¼¾⅛⅜⅝⅞]|1/2|[13]/4|[1357]/8)%? `)

// fractions maps the fraction glyph found after the integer part of a
// coupon to its decimal value. Each ASCII n/d form carries the same value
// as its Unicode glyph.
var fractions = map[string]float64{
	"": 0.000,

	"½": 0.500,
	"¼": 0.250,
	"¾": 0.750,
	"⅛": 0.125,
	"⅜": 0.375,
	"⅝": 0.625,
	"⅞": 0.875,

	"1/2": 0.500,
	"1/4": 0.250,
	"3/4": 0.750,
	"1/8": 0.125,
	"3/8": 0.375,
	"5/8": 0.625,
	"7/8": 0.875,
}

// ErrInvalidCoupon is returned when an instrument name does not start
// with a recognisable coupon prefix.
var ErrInvalidCoupon = fmt.Errorf("universe: could not parse coupon from instrument name")

// ParseCoupon extracts the annual coupon percentage from a DMO instrument
// name.
func ParseCoupon(name string) (float64, error) {
	match := couponRe.FindStringSubmatch(name)
	if match == nil {
		return 0, ErrInvalidCoupon
	}
	units, fraction := match[1], match[2]

	value, ok := fractions[fraction]
	if !ok {
		return 0, ErrInvalidCoupon
	}
	if units != "" {
		var n float64
		if _, err := fmt.Sscanf(units, "%g", &n); err != nil {
			return 0, ErrInvalidCoupon
		}
		value += n
	}
	return value, nil
}
