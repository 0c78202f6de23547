// Package duration parses and formats rational note durations.
package duration

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Parse reads a rational duration such as "3/8" or "1".
// Zero and negative durations are rejected.
func Parse(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		den = "1"
	}
	n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return nil, fmt.Errorf("invalid duration %q", s)
	}
	if n <= 0 || d < 0 {
		return nil, fmt.Errorf("duration must be positive: %q", s)
	}
	return big.NewRat(n, d), nil
}

// MustParse is like Parse but panics on error. Use only with literals.
func MustParse(s string) *big.Rat {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// LilyPond renders a duration as a LilyPond duration token.
//
// Durations of the form 1/n render as "n", 3/2n as "n." and 7/4n as "n..".
// Anything else renders as a whole note with a multiplier, e.g. "1 * 5/8".
func LilyPond(d *big.Rat) string {
	num := d.Num().Int64()
	den := d.Denom().Int64()

	switch {
	case num == 1 && isPowerOfTwo(den):
		return strconv.FormatInt(den, 10)
	case num == 3 && den >= 2 && isPowerOfTwo(den):
		return strconv.FormatInt(den/2, 10) + "."
	case num == 7 && den >= 4 && isPowerOfTwo(den):
		return strconv.FormatInt(den/4, 10) + ".."
	case num > 1 && den == 1:
		return "1 * " + strconv.FormatInt(num, 10)
	}
	return "1 * " + d.RatString()
}

// Seconds converts a duration to seconds at the given tempo, where unit is
// the beat duration and unitsPerMinute the beat rate.
func Seconds(d, unit *big.Rat, unitsPerMinute int) *big.Rat {
	beats := new(big.Rat).Quo(d, unit)
	perBeat := big.NewRat(60, int64(unitsPerMinute))
	return beats.Mul(beats, perBeat)
}

// ClockTime formats a number of seconds as a clock-time string such as
// 1'30''. Fractional seconds are rounded to the nearest second.
func ClockTime(seconds *big.Rat) string {
	total := roundRat(seconds)
	return fmt.Sprintf("%d'%02d''", total/60, total%60)
}

// ParseClockTime reads a clock-time string produced by ClockTime.
func ParseClockTime(s string) (*big.Rat, error) {
	mins, rest, ok := strings.Cut(s, "'")
	if !ok || !strings.HasSuffix(rest, "''") {
		return nil, fmt.Errorf("invalid clock time %q", s)
	}
	m, err1 := strconv.Atoi(mins)
	sec, err2 := strconv.Atoi(strings.TrimSuffix(rest, "''"))
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("invalid clock time %q", s)
	}
	return big.NewRat(int64(m*60+sec), 1), nil
}

func roundRat(r *big.Rat) int64 {
	num := new(big.Int).Set(r.Num())
	den := r.Denom()
	// floor((2*num + den) / (2*den))
	num.Mul(num, big.NewInt(2))
	num.Add(num, den)
	return num.Quo(num, new(big.Int).Mul(den, big.NewInt(2))).Int64()
}

func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}
