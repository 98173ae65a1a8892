package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactor(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{1, 1.00},
		{2, 0.31},
		{3, 0.53},
		{4, 0.53},
		{9, 0.53},
		{10, 0.53},
		{250, 0.53},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Factor(tt.count), "count %d", tt.count)
	}
}

func TestRequiresAdvisory(t *testing.T) {
	for n := 1; n <= 40; n++ {
		assert.Equal(t, n > 9, RequiresAdvisory(n), "count %d", n)
	}
}

func TestAdvisoryFor(t *testing.T) {
	assert.Nil(t, AdvisoryFor(9))

	a := AdvisoryFor(10)
	require.NotNil(t, a)
	assert.Equal(t, 10, a.Conductors)
	assert.Equal(t, AdvisoryCitation, a.Citation)
	assert.Contains(t, a.Message, "10 conductors")
}

func TestTiersCarryCitation(t *testing.T) {
	for _, tier := range Tiers() {
		assert.Equal(t, TableCitation, tier.Citation)
		assert.NotEmpty(t, tier.Description)
	}
	assert.Equal(t, "2", TierFor(2).Conductors)
	assert.Equal(t, "3+", TierFor(7).Conductors)
}
