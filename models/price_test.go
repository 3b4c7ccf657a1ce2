package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

func TestParsePKR(t *testing.T) {
	cases := []struct {
		display string
		want    int64
	}{
		{"PKR 2.5 crore", 25_000_000},
		{"PKR 45 lacs", 4_500_000},
		{"PKR 1,200", 1_200},
		{"PKR 1.15 crore", 11_500_000},
		{"pkr 30 lac", 3_000_000},
		{"55 lakhs", 5_500_000},
		{"1200", 1_200},
		{"PKR 8,500,000", 8_500_000},
	}
	for _, c := range cases {
		got, err := models.ParsePKR(c.display)
		assert.NoError(t, err, c.display)
		assert.Equal(t, c.want, got, c.display)
	}
}

func TestParsePKRRejectsGarbage(t *testing.T) {
	for _, display := range []string{"", "PKR", "negotiable", "PKR abc lacs"} {
		_, err := models.ParsePKR(display)
		assert.ErrorIs(t, err, models.ErrUnparsablePrice, display)
	}
}

func TestFormatPKRRoundTrips(t *testing.T) {
	for _, amount := range []int64{1_200, 999, 4_500_000, 25_000_000, 11_500_000, 185_00_000} {
		display := models.FormatPKR(amount)
		parsed, err := models.ParsePKR(display)
		assert.NoError(t, err, display)
		assert.Equal(t, amount, parsed, display)
	}
}

func TestFormatPKRStyle(t *testing.T) {
	assert.Equal(t, "PKR 45 lacs", models.FormatPKR(4_500_000))
	assert.Equal(t, "PKR 2.5 crore", models.FormatPKR(25_000_000))
	assert.Equal(t, "PKR 1,200", models.FormatPKR(1_200))
}
