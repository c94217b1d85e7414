package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestAverages_Empty(t *testing.T) {
	s := &Statistics{}
	p90, p48 := s.Averages()
	assert.Equal(t, 0.0, p90)
	assert.Equal(t, 0.0, p48)
}

func TestAverages_Rounding(t *testing.T) {
	s := &Statistics{
		Closed: []PricePoint{{fp(10)}, {fp(10)}, {fp(11)}},
		Live:   []PricePoint{{fp(1)}, {fp(2)}},
	}
	p90, p48 := s.Averages()
	assert.Equal(t, 10.33, p90)
	assert.Equal(t, 1.5, p48)
}

// The closed window excludes nulls; the live window counts them as zero.
// Identical null patterns must therefore produce different averages.
func TestAverages_NullAsymmetry(t *testing.T) {
	s := &Statistics{
		Closed: []PricePoint{{fp(10)}, {nil}, {fp(20)}},
		Live:   []PricePoint{{fp(10)}, {nil}, {fp(20)}},
	}
	p90, p48 := s.Averages()
	assert.Equal(t, 15.0, p90) // (10+20)/2
	assert.Equal(t, 10.0, p48) // (10+0+20)/3
}

func TestAverages_AllNull(t *testing.T) {
	s := &Statistics{
		Closed: []PricePoint{{nil}, {nil}},
		Live:   []PricePoint{{nil}, {nil}},
	}
	p90, p48 := s.Averages()
	assert.Equal(t, 0.0, p90) // filtered set empty
	assert.Equal(t, 0.0, p48) // two zero substitutes
}
