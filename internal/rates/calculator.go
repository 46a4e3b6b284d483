package rates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is the charge contributed by one reached bracket.
type Line struct {
	Bracket int              `json:"bracket"`
	From    decimal.Decimal  `json:"from"`
	To      *decimal.Decimal `json:"to,omitempty"`
	Units   decimal.Decimal  `json:"units"`
	Charge  decimal.Decimal  `json:"charge"`
	Text    string           `json:"text"`
}

const (
	// MaxConsumption is the largest reading a quote accepts, in cubic meters.
	MaxConsumption = 1_000_000_000
	// MaxConsumptionPlaces bounds the fractional digits of a reading.
	MaxConsumptionPlaces = 6

	maxConsumptionLen = 64
)

var maxConsumption = decimal.NewFromInt(MaxConsumption)

// consumptionRangeError reports a reading outside the accepted range. It
// matches ErrInvalidConsumption under errors.Is.
type consumptionRangeError struct{ msg string }

func (e *consumptionRangeError) Error() string { return e.msg }
func (e *consumptionRangeError) Unwrap() error { return ErrInvalidConsumption }

// checkConsumption validates a reading using only its sign and exponent
// before any arithmetic that would rescale it.
func checkConsumption(consumption decimal.Decimal) error {
	exp := consumption.Exponent()
	if !consumption.IsPositive() {
		if exp < -MaxConsumptionPlaces || exp > 9 {
			return ErrInvalidConsumption
		}
		return fmt.Errorf("%w (got %s)", ErrInvalidConsumption, consumption)
	}
	if exp < -MaxConsumptionPlaces {
		return &consumptionRangeError{msg: fmt.Sprintf("consumption must have at most %d decimal places", MaxConsumptionPlaces)}
	}
	// A positive coefficient with exponent above 9 is at least 1e10.
	if exp > 9 || consumption.GreaterThan(maxConsumption) {
		return &consumptionRangeError{msg: fmt.Sprintf("consumption must be at most %d %s", MaxConsumption, VolumeUnit)}
	}
	return nil
}

// Quote is a computed bill. It is never stored.
type Quote struct {
	Consumption     decimal.Decimal
	CustomerClass   CustomerClass
	Total           decimal.Decimal
	Breakdown       []string
	Lines           []Line
	ScheduleVersion string
}

// Calculator prices consumption against a fixed rate table. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	table *Table
}

// NewCalculator returns a Calculator over table, or over DefaultTable when table is nil.
func NewCalculator(table *Table) *Calculator {
	if table == nil {
		table = DefaultTable()
	}
	return &Calculator{table: table}
}

// Table returns the rate table the calculator bills against.
func (c *Calculator) Table() *Table { return c.table }

// Calculate walks the brackets of the class's schedule in ascending order and
// returns the total and one breakdown line per bracket reached. Inputs are
// fully validated before any bracket is priced.
func (c *Calculator) Calculate(consumption decimal.Decimal, class string) (*Quote, error) {
	if err := checkConsumption(consumption); err != nil {
		return nil, err
	}
	sched, err := c.table.Lookup(class)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Consumption:     consumption,
		CustomerClass:   sched.Class,
		Total:           decimal.Zero,
		ScheduleVersion: c.table.Version(),
	}

	lower := decimal.Zero
	for i, b := range sched.Brackets {
		if i > 0 && consumption.LessThanOrEqual(lower) {
			break
		}
		final := b.Ceiling == nil || consumption.LessThanOrEqual(*b.Ceiling)

		units := consumption.Sub(lower)
		if !final {
			units = b.Ceiling.Sub(lower)
		}

		var charge decimal.Decimal
		if b.IsFlat() {
			charge = *b.Flat
		} else {
			charge = units.Mul(b.Rate)
		}
		charge = charge.Round(2)

		line := Line{
			Bracket: i + 1,
			From:    lower,
			To:      b.Ceiling,
			Units:   units,
			Charge:  charge,
		}
		line.Text = lineText(i, b, lower, units, final, charge)

		q.Lines = append(q.Lines, line)
		q.Breakdown = append(q.Breakdown, line.Text)
		q.Total = q.Total.Add(charge)

		if final {
			break
		}
		lower = *b.Ceiling
	}
	return q, nil
}

// ParseConsumption parses a consumption figure as received from a form or
// query string. Readings outside (0, MaxConsumption] or with more than
// MaxConsumptionPlaces fractional digits are rejected.
func ParseConsumption(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w (consumption is required)", ErrInvalidConsumption)
	}
	if len(s) > maxConsumptionLen {
		return decimal.Zero, &consumptionRangeError{msg: fmt.Sprintf("consumption must be at most %d characters", maxConsumptionLen)}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w (not a number: %q)", ErrInvalidConsumption, raw)
	}
	if err := checkConsumption(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
