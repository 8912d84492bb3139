package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCoupon(t *testing.T) {
	cases := []struct {
		name string
		want float64
	}{
		{"0 5/8% Treasury Gilt 2025", 0.625},
		{"2% Treasury Gilt 2025", 2.0},
		{"3½% Treasury Gilt 2025", 3.5},
		{"0⅛% Index-linked Treasury Gilt 2029", 0.125},
		{"4¼% Treasury Gilt 2036", 4.25},
		{"0% Treasury Gilt 2025", 0.0},
	}
	for _, c := range cases {
		got, err := ParseCoupon(c.name)
		assert.NoError(t, err, c.name)
		assert.InDelta(t, c.want, got, 1e-9, c.name)
	}
}

func TestParseCouponInvalid(t *testing.T) {
	_, err := ParseCoupon("Not a gilt name")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}
