package timecode

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain seconds", "12.5", "12.500"},
		{"integer seconds", "7", "7.000"},
		{"hh:mm:ss", "01:02:03.456", "3723.456"},
		{"mm:ss", "02:03.5", "123.500"},
		{"negative", "-00:00:01.250", "-1.250"},
		{"surrounding spaces", "  3.000 ", "3.000"},
		{"large hours", "125:00:00", "450000.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "00:61:00", "00:00:75", "1e3", "1.2.3", "--1", ":"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat), "expected ErrFormat, got %v", err)
		})
	}
}

func TestFormat(t *testing.T) {
	v := MustParse("3723.4567")
	assert.Equal(t, "3723.457", v.Format(ModeSeconds))
	assert.Equal(t, "01:02:03.457", v.Format(ModeHHMMSS))
	assert.Equal(t, "-00:00:01.500", MustParse("-1.5").Format(ModeHHMMSS))
	assert.Equal(t, "00:00:00.000", Zero.Format(ModeHHMMSS))
}

func TestArithmeticIsExact(t *testing.T) {
	sum := Zero
	tenth := MustParse("0.1")
	for i := 0; i < 10; i++ {
		sum = sum.Add(tenth)
	}
	assert.True(t, sum.Equal(MustParse("1")), "0.1 * 10 must be exactly 1, got %s", sum.Decimal())

	// No silent rounding on addition.
	v := MustParse("0.0004").Add(MustParse("0.0004"))
	assert.Equal(t, "0.0008", v.Decimal().String())
	assert.Equal(t, "0.001", v.Round(3).Decimal().String())
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, int64(1500), MustParse("1.5").Milliseconds())
	assert.True(t, FromMilliseconds(2500).Equal(MustParse("2.5")))
	assert.True(t, Millisecond.Equal(MustParse("0.001")))
	assert.True(t, FromSeconds(1.23456).Equal(MustParse("1.235")))
}

func TestCompareHelpers(t *testing.T) {
	a, b := MustParse("1"), MustParse("2")
	assert.Equal(t, -1, a.Cmp(b))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, Min(b, a).Equal(a))
	assert.True(t, Max(a, b).Equal(b))
	assert.True(t, a.Sub(b).Abs().Equal(a))
}

func TestJSON(t *testing.T) {
	var vs []Value
	require.NoError(t, json.Unmarshal([]byte(`[1.25, "2.5", null, 0]`), &vs))
	require.Len(t, vs, 4)
	assert.Equal(t, "1.250", vs[0].String())
	assert.Equal(t, "2.500", vs[1].String())
	assert.True(t, vs[2].IsZero())

	out, err := json.Marshal(MustParse("12.345"))
	require.NoError(t, err)
	assert.Equal(t, "12.345", string(out))

	var bad Value
	assert.ErrorIs(t, json.Unmarshal([]byte(`"x"`), &bad), ErrFormat)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("hh:mm:ss")
	require.NoError(t, err)
	assert.Equal(t, ModeHHMMSS, m)
	m, err = ParseMode("s")
	require.NoError(t, err)
	assert.Equal(t, ModeSeconds, m)
	_, err = ParseMode("frames")
	assert.Error(t, err)
}
