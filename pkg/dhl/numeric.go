package dhl

import (
	"strings"

	"github.com/shopspring/decimal"
)

// volumetricDivisor converts cm^3 to kg for DHL Express (SI shipments).
var volumetricDivisor = decimal.NewFromInt(5000)

// Round2 quantizes d to two fractional digits. Halves round up
// (away from zero); all weights and amounts here are non-negative, so
// this matches the carrier's HALF_UP reference behavior exactly.
// Banker's rounding produces off-by-one cents that DHL rejects.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Volumetric returns L*W*H/5000 unrounded, lengths in cm, result in kg.
// The caller decides the rounding strategy; rate aggregation rounds
// per line, audit sums round once at the end.
func Volumetric(l, w, h decimal.Decimal) decimal.Decimal {
	return l.Mul(w).Mul(h).Div(volumetricDivisor)
}

// ParseDecimal converts carrier-supplied numeric text into a decimal.
// Empty strings, NaN and infinities come back as zero with ok=false;
// a defined value is always returned, never a propagating NaN.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	switch strings.ToLower(s) {
	case "nan", "-nan", "inf", "+inf", "-inf", "infinity", "+infinity", "-infinity":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// maxDecimal returns the largest of the given decimals, zero for none.
func maxDecimal(ds ...decimal.Decimal) decimal.Decimal {
	max := decimal.Zero
	for _, d := range ds {
		if d.GreaterThan(max) {
			max = d
		}
	}
	return max
}
