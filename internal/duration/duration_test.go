package duration

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("3/8")
	require.NoError(t, err)
	assert.Equal(t, big.NewRat(3, 8), d)

	d, err = Parse("2")
	require.NoError(t, err)
	assert.Equal(t, big.NewRat(2, 1), d)

	for _, bad := range []string{"", "x/4", "1/0", "0/4", "-1/4"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestLilyPond(t *testing.T) {
	tests := map[string]string{
		"1/4":  "4",
		"1":    "1",
		"3/8":  "4.",
		"3/4":  "2.",
		"7/16": "4..",
		"5/8":  "1 * 5/8",
		"2":    "1 * 2",
	}
	for in, want := range tests {
		assert.Equal(t, want, LilyPond(MustParse(in)), in)
	}
}

func TestSecondsAndClockTime(t *testing.T) {
	// four quarter notes at 60 bpm
	secs := Seconds(big.NewRat(1, 1), big.NewRat(1, 4), 60)
	assert.Equal(t, big.NewRat(4, 1), secs)
	assert.Equal(t, "0'04''", ClockTime(secs))

	assert.Equal(t, "1'30''", ClockTime(big.NewRat(90, 1)))
	assert.Equal(t, "0'03''", ClockTime(big.NewRat(5, 2)))
}

func TestParseClockTime(t *testing.T) {
	r, err := ParseClockTime("1'30''")
	require.NoError(t, err)
	assert.Equal(t, big.NewRat(90, 1), r)

	_, err = ParseClockTime("90s")
	assert.Error(t, err)
}
