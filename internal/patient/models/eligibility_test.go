package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth string
		now   string
		want  int
	}{
		{"day before 18th birthday", "2006-03-02", "2024-03-01", 17},
		{"on 18th birthday", "2006-03-02", "2024-03-02", 18},
		{"day after 18th birthday", "2006-03-02", "2024-03-03", 18},
		{"same day as birth", "2024-03-02", "2024-03-02", 0},
		{"leap day birth, non-leap year Feb 28", "2004-02-29", "2023-02-28", 18},
		{"leap day birth, non-leap year Mar 1", "2004-02-29", "2023-03-01", 19},
		{"month boundary", "2000-12-31", "2024-01-01", 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(date(tt.birth), date(tt.now)))
		})
	}
}

func TestEligibleAt(t *testing.T) {
	now := date("2024-03-02")

	t.Run("exactly 18 is eligible", func(t *testing.T) {
		birth := date("2006-03-02")
		assert.True(t, EligibleAt(&birth, now))
	})

	t.Run("17 is not eligible", func(t *testing.T) {
		birth := date("2006-03-03")
		assert.False(t, EligibleAt(&birth, now))
	})

	t.Run("missing birth date counts as age zero", func(t *testing.T) {
		assert.False(t, EligibleAt(nil, now))
	})
}

func TestParseGender(t *testing.T) {
	tests := []struct {
		raw  string
		want Gender
	}{
		{"male", GenderMale},
		{"FEMALE", GenderFemale},
		{"Other", GenderOther},
		{"unknown", GenderUnknown},
		{"", GenderUnknown},
		{"nonbinary", GenderUnknown},
		{"  male  ", GenderMale},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseGender(tt.raw), "input %q", tt.raw)
	}
}
