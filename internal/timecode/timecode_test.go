package timecode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParsePlainSeconds(t *testing.T) {
	v, err := Parse("90.5")
	assert.NoError(t, err)
	assert.Equal(t, 90.5, v)
}

func TestParseMinutesSeconds(t *testing.T) {
	v, err := Parse("01:30.5")
	assert.NoError(t, err)
	assert.Equal(t, 90.5, v)
}

func TestParseHoursMinutesSeconds(t *testing.T) {
	v, err := Parse("01:02:03.25")
	assert.NoError(t, err)
	assert.Equal(t, 3723.25, v)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestParseRejectsNegative(t *testing.T) {
	_, err := Parse("-5")
	assert.Error(t, err)

	_, err = Parse("-1:30")
	assert.Error(t, err)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("not-a-time")
	assert.Error(t, err)

	_, err = Parse("1:2:3:4")
	assert.Error(t, err)
}

func TestParseTrimsWhitespace(t *testing.T) {
	v, err := Parse("  12.0  ")
	assert.NoError(t, err)
	assert.Equal(t, 12.0, v)
}

func TestParseNonNegativeResultsNeverError(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secs := rapid.Float64Range(0, 359999).Draw(t, "secs")
		h := int(secs) / 3600
		m := (int(secs) % 3600) / 60
		s := secs - float64(h*3600+m*60)

		form := rapid.SampledFrom([]string{"hms", "ms", "s"}).Draw(t, "form")
		var input string
		switch form {
		case "hms":
			input = fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
		case "ms":
			input = fmt.Sprintf("%02d:%06.3f", h*60+m, s)
		default:
			input = fmt.Sprintf("%.3f", secs)
		}

		if _, err := Parse(input); err != nil {
			t.Fatalf("unexpected error parsing %q: %v", input, err)
		}
	})
}
