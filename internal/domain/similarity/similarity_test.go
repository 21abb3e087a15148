package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_ExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Value(100, 100, DefaultValueTolerance))
	assert.Equal(t, 1.0, Value(0, 0, DefaultValueTolerance))
}

func TestValue_WithinTolerance(t *testing.T) {
	// 2% difference -> linear decay
	score := Value(100, 98, DefaultValueTolerance)
	assert.InDelta(t, 0.98, score, 0.0001)
}

func TestValue_BeyondTolerance(t *testing.T) {
	// 100% difference is far beyond the 5% tolerance
	assert.Equal(t, 0.0, Value(100, 200, DefaultValueTolerance))
}

func TestValue_Symmetric(t *testing.T) {
	cases := [][2]float64{
		{100, 98},
		{1500, 1500.5},
		{0, 10},
		{33.33, 35},
	}

	for _, c := range cases {
		assert.Equal(t, Value(c[0], c[1], DefaultValueTolerance), Value(c[1], c[0], DefaultValueTolerance))
	}
}

func TestDate_ExactMatch(t *testing.T) {
	d := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, Date(d, d, DefaultDateToleranceDays))
}

func TestDate_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1.0, Date(a, b, DefaultDateToleranceDays))
}

func TestDate_LinearDecay(t *testing.T) {
	d := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	score := Date(d, d.AddDate(0, 0, 3), DefaultDateToleranceDays)
	assert.InDelta(t, 1.0-3.0/7.0, score, 0.0001)
}

func TestDate_AtToleranceBoundary(t *testing.T) {
	d := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, Date(d, d.AddDate(0, 0, 7), DefaultDateToleranceDays))
}

func TestDate_BeyondTolerance(t *testing.T) {
	d := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, Date(d, d.AddDate(0, 0, 20), DefaultDateToleranceDays))
}

func TestDate_Symmetric(t *testing.T) {
	a := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 0, 4)
	assert.Equal(t, Date(a, b, DefaultDateToleranceDays), Date(b, a, DefaultDateToleranceDays))
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"exact case-insensitive", "Maria Silva", "maria silva", 1.0},
		{"trimmed", "  Maria Silva  ", "maria silva", 1.0},
		{"containment", "Maria Silva Ltda", "Maria Silva", 0.8},
		{"containment reversed", "Maria Silva", "Maria Silva Ltda", 0.8},
		{"empty left", "", "maria", 0.0},
		{"empty right", "maria", "", 0.0},
		{"both empty", "", "", 0.0},
		{"disjoint single words", "banana", "laranja", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.a, tt.b))
		})
	}
}

func TestText_JaccardOverlap(t *testing.T) {
	// {joao, da, silva} vs {joao, pereira, silva}: 2 common / 4 total
	score := Text("joao da silva", "joao pereira silva")
	assert.InDelta(t, 0.5, score, 0.0001)
}

func TestText_JaccardKeepsAccentedTokensWhole(t *testing.T) {
	// {maria, gonçalves} vs {gonçalves, maria, pereira}: 2 common /
	// 3 total. Splitting "gonçalves" at the ç would inflate this to 3/4.
	score := Text("maria gonçalves", "gonçalves maria pereira")
	assert.InDelta(t, 2.0/3.0, score, 0.0001)
}
