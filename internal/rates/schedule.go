package rates

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomerClass selects which rate schedule applies to a bill.
type CustomerClass string

const (
	Residential CustomerClass = "residential"
	Commercial  CustomerClass = "commercial"
)

// DefaultClass is billed when the caller leaves the class empty.
const DefaultClass = Residential

// DefaultVersion identifies the built-in rate table.
const DefaultVersion = "2026-01"

var (
	ErrInvalidConsumption   = errors.New("consumption must be greater than 0")
	ErrUnknownCustomerClass = errors.New("unknown customer class")
	ErrInvalidSchedule      = errors.New("invalid rate schedule")
)

// Bracket is one span of a progressive rate schedule. The span starts at the
// previous bracket's ceiling (zero for the first bracket).
type Bracket struct {
	// Ceiling is the consumption at which the bracket ends.
	// Nil means unbounded, which is only valid for the last bracket.
	Ceiling *decimal.Decimal `json:"ceiling,omitempty" yaml:"ceiling,omitempty"`

	// Flat is a fixed charge for the whole bracket; only the first bracket may be flat.
	Flat *decimal.Decimal `json:"flat,omitempty" yaml:"flat,omitempty"`

	// Rate is the marginal price per cubic meter inside the bracket.
	Rate decimal.Decimal `json:"rate" yaml:"rate"`
}

// IsFlat reports whether the bracket bills a fixed charge.
func (b Bracket) IsFlat() bool { return b.Flat != nil }

// Schedule is the ordered bracket list for one customer class.
type Schedule struct {
	Class    CustomerClass `json:"customer_class"`
	Brackets []Bracket     `json:"brackets"`
}

// Table holds one schedule per customer class. It is built once at startup and
// never mutated; every accessor hands out copies.
type Table struct {
	version   string
	schedules map[CustomerClass]Schedule
}

// NewTable validates the schedules and returns an immutable table.
func NewTable(version string, schedules ...Schedule) (*Table, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidSchedule)
	}
	if len(schedules) == 0 {
		return nil, fmt.Errorf("%w: no schedules", ErrInvalidSchedule)
	}

	t := &Table{
		version:   version,
		schedules: make(map[CustomerClass]Schedule, len(schedules)),
	}
	for _, s := range schedules {
		class := CustomerClass(normalizeClass(string(s.Class)))
		if class == "" {
			return nil, fmt.Errorf("%w: schedule without customer class", ErrInvalidSchedule)
		}
		if _, dup := t.schedules[class]; dup {
			return nil, fmt.Errorf("%w: duplicate schedule for %q", ErrInvalidSchedule, class)
		}
		if err := validateBrackets(s.Brackets); err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidSchedule, class, err)
		}
		t.schedules[class] = Schedule{Class: class, Brackets: cloneBrackets(s.Brackets)}
	}
	return t, nil
}

// DefaultTable returns the district's published residential and commercial schedules.
func DefaultTable() *Table {
	t, err := NewTable(DefaultVersion,
		Schedule{
			Class: Residential,
			Brackets: []Bracket{
				{Ceiling: dec("10"), Flat: dec("180.00")},
				{Ceiling: dec("20"), Rate: decimal.RequireFromString("22.50")},
				{Ceiling: dec("30"), Rate: decimal.RequireFromString("28.00")},
				{Rate: decimal.RequireFromString("35.00")},
			},
		},
		Schedule{
			Class: Commercial,
			Brackets: []Bracket{
				{Ceiling: dec("20"), Flat: dec("450.00")},
				{Ceiling: dec("40"), Rate: decimal.RequireFromString("40.00")},
				{Rate: decimal.RequireFromString("45.00")},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Version identifies the rate table revision quotes were computed against.
func (t *Table) Version() string { return t.version }

// Lookup returns the schedule for class. An empty class selects DefaultClass;
// any other unrecognized value fails with ErrUnknownCustomerClass.
func (t *Table) Lookup(class string) (Schedule, error) {
	key := normalizeClass(class)
	if key == "" {
		key = string(DefaultClass)
	}
	s, ok := t.schedules[CustomerClass(key)]
	if !ok {
		return Schedule{}, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownCustomerClass, class, strings.Join(t.classNames(), ", "))
	}
	return Schedule{Class: s.Class, Brackets: cloneBrackets(s.Brackets)}, nil
}

// Classes returns the configured customer classes in sorted order.
func (t *Table) Classes() []CustomerClass {
	out := make([]CustomerClass, 0, len(t.schedules))
	for c := range t.schedules {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Schedules returns copies of every schedule, sorted by class.
func (t *Table) Schedules() []Schedule {
	out := make([]Schedule, 0, len(t.schedules))
	for _, c := range t.Classes() {
		s := t.schedules[c]
		out = append(out, Schedule{Class: s.Class, Brackets: cloneBrackets(s.Brackets)})
	}
	return out
}

func (t *Table) classNames() []string {
	classes := t.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = string(c)
	}
	return names
}

func validateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return errors.New("no brackets")
	}
	lower := decimal.Zero
	for i, b := range brackets {
		last := i == len(brackets)-1
		switch {
		case last && b.Ceiling != nil:
			return fmt.Errorf("bracket %d: last bracket must be unbounded", i+1)
		case !last && b.Ceiling == nil:
			return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i+1)
		case b.Ceiling != nil && !b.Ceiling.GreaterThan(lower):
			return fmt.Errorf("bracket %d: ceiling %s must exceed %s", i+1, b.Ceiling, lower)
		case b.Flat != nil && i > 0:
			return fmt.Errorf("bracket %d: only the first bracket may be flat", i+1)
		case b.Flat != nil && b.Flat.IsNegative():
			return fmt.Errorf("bracket %d: negative flat charge", i+1)
		case b.Flat != nil && !b.Rate.IsZero():
			return fmt.Errorf("bracket %d: flat bracket cannot also carry a rate", i+1)
		case b.Rate.IsNegative():
			return fmt.Errorf("bracket %d: negative rate", i+1)
		}
		if b.Ceiling != nil {
			lower = *b.Ceiling
		}
	}
	return nil
}

func cloneBrackets(in []Bracket) []Bracket {
	out := make([]Bracket, len(in))
	for i, b := range in {
		out[i] = Bracket{Rate: b.Rate}
		if b.Ceiling != nil {
			c := *b.Ceiling
			out[i].Ceiling = &c
		}
		if b.Flat != nil {
			f := *b.Flat
			out[i].Flat = &f
		}
	}
	return out
}

func normalizeClass(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
