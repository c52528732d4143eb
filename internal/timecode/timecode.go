// Package timecode provides the exact decimal time value used for every
// coded event, segment duration and offset.
//
// A Value counts seconds since the start of an observation. Arithmetic is
// exact; rounding only happens in Round and when formatting. Floats coming
// from media players are converted once, with FromSeconds.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrFormat is returned when a text time cannot be parsed.
var ErrFormat = errors.New("invalid time format")

// Mode selects the textual representation produced by Format.
type Mode int

const (
	// ModeSeconds renders plain seconds with 3 decimals ("75.500").
	ModeSeconds Mode = iota
	// ModeHHMMSS renders "HH:MM:SS.mmm" ("00:01:15.500").
	ModeHHMMSS
)

// ParseMode maps the configuration spelling of a time format to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "seconds":
		return ModeSeconds, nil
	case "hh:mm:ss", "hhmmss":
		return ModeHHMMSS, nil
	default:
		return ModeSeconds, fmt.Errorf("unknown time format %q", s)
	}
}

var (
	thousand = decimal.NewFromInt(1000)
	sixty    = decimal.NewFromInt(60)
	hour     = decimal.NewFromInt(3600)
)

// Value is an exact time in seconds. The zero Value is 0s.
type Value struct {
	d decimal.Decimal
}

// Zero is 0s.
var Zero = Value{}

// Millisecond is 0.001s.
var Millisecond = FromMilliseconds(1)

// New wraps a decimal number of seconds.
func New(d decimal.Decimal) Value {
	return Value{d: d}
}

// FromMilliseconds builds a Value from an integer number of milliseconds.
func FromMilliseconds(ms int64) Value {
	return Value{d: decimal.New(ms, -3)}
}

// FromSeconds converts a float reported by an external API, rounded to the millisecond.
func FromSeconds(s float64) Value {
	return Value{d: decimal.NewFromFloat(s).Round(3)}
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Parse reads "HH:MM:SS.mmm", "MM:SS.mmm" or plain seconds, with an optional leading "-".
func Parse(text string) (Value, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrFormat)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	var total decimal.Decimal
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		sec, err := parseUnsigned(parts[len(parts)-1])
		if err != nil {
			return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		if sec.GreaterThanOrEqual(sixty) {
			return Zero, fmt.Errorf("%w: seconds out of range in %q", ErrFormat, text)
		}
		total = sec

		minutes, err := strconv.ParseUint(parts[len(parts)-2], 10, 32)
		if err != nil {
			return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		if len(parts) == 3 && minutes >= 60 {
			return Zero, fmt.Errorf("%w: minutes out of range in %q", ErrFormat, text)
		}
		total = total.Add(decimal.NewFromInt(int64(minutes)).Mul(sixty))

		if len(parts) == 3 {
			hours, err := strconv.ParseUint(parts[0], 10, 32)
			if err != nil {
				return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
			}
			total = total.Add(decimal.NewFromInt(int64(hours)).Mul(hour))
		}
	} else {
		d, err := parseUnsigned(s)
		if err != nil {
			return Zero, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		total = d
	}

	if negative {
		total = total.Neg()
	}
	return Value{d: total}, nil
}

// parseUnsigned accepts digits with at most one decimal point.
func parseUnsigned(s string) (decimal.Decimal, error) {
	if s == "" || strings.Trim(s, "0123456789.") != "" || strings.Count(s, ".") > 1 || s == "." {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return decimal.NewFromString(s)
}

// Format renders the value in the given mode, rounded to milliseconds.
func (v Value) Format(mode Mode) string {
	r := v.d.Round(3)
	if mode == ModeSeconds {
		return r.StringFixed(3)
	}

	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	ms := r.Mul(thousand).IntPart()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}

// String renders plain seconds with 3 decimals.
func (v Value) String() string {
	return v.Format(ModeSeconds)
}

func (v Value) Add(o Value) Value { return Value{d: v.d.Add(o.d)} }
func (v Value) Sub(o Value) Value { return Value{d: v.d.Sub(o.d)} }
func (v Value) Neg() Value        { return Value{d: v.d.Neg()} }
func (v Value) Abs() Value        { return Value{d: v.d.Abs()} }

// Round rounds half away from zero to the given number of decimal places.
func (v Value) Round(places int32) Value { return Value{d: v.d.Round(places)} }

// Cmp returns -1, 0 or +1.
func (v Value) Cmp(o Value) int          { return v.d.Cmp(o.d) }
func (v Value) Equal(o Value) bool       { return v.d.Equal(o.d) }
func (v Value) Before(o Value) bool      { return v.d.LessThan(o.d) }
func (v Value) After(o Value) bool       { return v.d.GreaterThan(o.d) }
func (v Value) IsZero() bool             { return v.d.IsZero() }
func (v Value) Sign() int                { return v.d.Sign() }
func (v Value) Decimal() decimal.Decimal { return v.d }

// Milliseconds returns the value rounded to whole milliseconds.
func (v Value) Milliseconds() int64 {
	return v.d.Mul(thousand).Round(0).IntPart()
}

// Seconds returns a float approximation, for ratios and display only.
func (v Value) Seconds() float64 {
	return v.d.InexactFloat64()
}

// Min returns the earliest of the given values.
func Min(first Value, rest ...Value) Value {
	m := first
	for _, v := range rest {
		if v.Before(m) {
			m = v
		}
	}
	return m
}

// Max returns the latest of the given values.
func Max(first Value, rest ...Value) Value {
	m := first
	for _, v := range rest {
		if v.After(m) {
			m = v
		}
	}
	return m
}

// MarshalJSON writes the value as a bare JSON number, as the project file stores times.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(v.d.String()), nil
}

// UnmarshalJSON accepts a JSON number, a quoted number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFormat, s)
	}
	v.d = d
	return nil
}
