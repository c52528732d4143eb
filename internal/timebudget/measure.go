package timebudget

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/harrison/ethocode/internal/timecode"
)

// Status tells whether a Measure carries a number.
type Status int

const (
	// Available measures carry a number.
	Available Status = iota
	// NotApplicable covers undefined statistics (too few samples), durations of
	// point behaviors and percentages with an unknown or zero denominator.
	NotApplicable
	// UnpairedState marks every figure of a STATE group with an odd event count.
	UnpairedState
)

// Measure is a number or one of the NA / UNPAIRED sentinels.
type Measure struct {
	Status Status
	Value  decimal.Decimal
}

var (
	// NA is the not-applicable sentinel.
	NA = Measure{Status: NotApplicable}
	// Unpaired is the sentinel of groups with unpaired STATE events.
	Unpaired = Measure{Status: UnpairedState}
)

// Num wraps an available number.
func Num(d decimal.Decimal) Measure {
	return Measure{Status: Available, Value: d}
}

// Int wraps an available integer.
func Int(n int) Measure {
	return Num(decimal.NewFromInt(int64(n)))
}

// Time wraps an available time value.
func Time(v timecode.Value) Measure {
	return Num(v.Decimal())
}

// IsAvailable reports whether m carries a number.
func (m Measure) IsAvailable() bool {
	return m.Status == Available
}

// String renders the number, "NA" or "UNPAIRED".
func (m Measure) String() string {
	switch m.Status {
	case NotApplicable:
		return "NA"
	case UnpairedState:
		return "UNPAIRED"
	default:
		return m.Value.String()
	}
}

// Float64 returns the number, ok is false for sentinels.
func (m Measure) Float64() (float64, bool) {
	if m.Status != Available {
		return 0, false
	}
	return m.Value.InexactFloat64(), true
}

// MarshalJSON writes a JSON number or the sentinel text.
func (m Measure) MarshalJSON() ([]byte, error) {
	if m.Status != Available {
		return json.Marshal(m.String())
	}
	return []byte(m.Value.String()), nil
}

// add sums two measures. UNPAIRED wins over everything; NA is ignored, so NA + n = n.
func add(a, b Measure) Measure {
	switch {
	case a.Status == UnpairedState || b.Status == UnpairedState:
		return Unpaired
	case a.Status == NotApplicable:
		return b
	case b.Status == NotApplicable:
		return a
	default:
		return Num(a.Value.Add(b.Value))
	}
}

// mean is NA without samples.
func mean(samples []decimal.Decimal) Measure {
	if len(samples) == 0 {
		return NA
	}
	return Num(decimal.Sum(decimal.Zero, samples...).Div(decimal.NewFromInt(int64(len(samples)))).Round(3))
}

// stdev is the sample standard deviation, NA with fewer than 2 samples.
func stdev(samples []decimal.Decimal) Measure {
	if len(samples) < 2 {
		return NA
	}
	m := decimal.Sum(decimal.Zero, samples...).Div(decimal.NewFromInt(int64(len(samples))))
	variance := decimal.Zero
	for _, s := range samples {
		d := s.Sub(m)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(samples) - 1)))
	return Num(decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())).Round(3))
}
