package rates

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// CurrencySymbol prefixes every amount in a breakdown line.
	CurrencySymbol = "₱"
	// VolumeUnit labels consumption in breakdown lines.
	VolumeUnit = "cu.m"
)

// FormatAmount renders money with exactly two decimals and the currency symbol.
func FormatAmount(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

// FormatPortion renders a consumed portion with at least one fractional digit,
// e.g. 5 -> "5.0", 2.5 -> "2.5".
func FormatPortion(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// lineText builds the human-readable breakdown entry for bracket i.
// Fully consumed brackets report their fixed width; the final reached bracket
// reports the portion of consumption that fell inside it.
func lineText(i int, b Bracket, lower, units decimal.Decimal, final bool, charge decimal.Decimal) string {
	amount := FormatAmount(charge)

	if i == 0 {
		switch {
		case b.IsFlat() && b.Ceiling != nil:
			return fmt.Sprintf("First %s %s: %s", b.Ceiling.String(), VolumeUnit, amount)
		case b.IsFlat():
			return fmt.Sprintf("Flat charge: %s", amount)
		case final:
			return fmt.Sprintf("First %s %s: %s", FormatPortion(units), VolumeUnit, amount)
		default:
			return fmt.Sprintf("First %s %s: %s", b.Ceiling.String(), VolumeUnit, amount)
		}
	}

	switch {
	case !final:
		return fmt.Sprintf("Next %s %s: %s", b.Ceiling.Sub(lower).String(), VolumeUnit, amount)
	case b.Ceiling == nil:
		return fmt.Sprintf("Remaining %s %s: %s", FormatPortion(units), VolumeUnit, amount)
	default:
		return fmt.Sprintf("Next %s %s: %s", FormatPortion(units), VolumeUnit, amount)
	}
}
