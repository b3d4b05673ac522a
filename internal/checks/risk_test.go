package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

func TestRiskAssessor_CommodityClasses(t *testing.T) {
	assessor := NewRiskAssessor(policy.Default())
	ctx := context.Background()

	low, err := assessor.AssessCommodity(ctx, "Electronics", "50000000")
	require.NoError(t, err)
	assert.Equal(t, models.CommodityApproved, low.Status)
	assert.Equal(t, 3, low.RiskImpact)
	assert.Empty(t, low.Recommendations)

	elevated, err := assessor.AssessCommodity(ctx, "Gold", "50000000")
	require.NoError(t, err)
	assert.Equal(t, models.CommodityApproved, elevated.Status)
	assert.Equal(t, 12, elevated.RiskImpact)
	assert.NotEmpty(t, elevated.Recommendations)

	restricted, err := assessor.AssessCommodity(ctx, "Weapons", "50000000")
	require.NoError(t, err)
	assert.Equal(t, models.CommodityRejected, restricted.Status)
	assert.Equal(t, 35, restricted.RiskImpact)

	unknown, err := assessor.AssessCommodity(ctx, "Novelty Items", "50000000")
	require.NoError(t, err)
	assert.Equal(t, models.CommodityApproved, unknown.Status)
	assert.Equal(t, 10, unknown.RiskImpact)
	assert.NotEmpty(t, unknown.Recommendations)
}

func TestRiskAssessor_ElevatedCommodityHighMagnitude(t *testing.T) {
	assessor := NewRiskAssessor(policy.Default())

	result, err := assessor.AssessCommodity(context.Background(), "Diamonds", "150000000")
	require.NoError(t, err)
	assert.Equal(t, models.CommodityApproved, result.Status)
	assert.Equal(t, 17, result.RiskImpact, "elevated class plus high-magnitude surcharge")
}

func TestRiskAssessor_CorridorTiers(t *testing.T) {
	assessor := NewRiskAssessor(policy.Default())
	ctx := context.Background()

	lowRisk, err := assessor.AssessCorridor(ctx, "Singapore", "United States")
	require.NoError(t, err)
	assert.Equal(t, 2, lowRisk.RiskImpact)

	mixed, err := assessor.AssessCorridor(ctx, "Singapore", "Afghanistan")
	require.NoError(t, err)
	assert.Equal(t, 21, mixed.RiskImpact)

	highRisk, err := assessor.AssessCorridor(ctx, "Somalia", "Yemen")
	require.NoError(t, err)
	assert.Equal(t, 40, highRisk.RiskImpact)

	// Unlisted countries fall back to the default tier.
	unknown, err := assessor.AssessCorridor(ctx, "Atlantis", "Singapore")
	require.NoError(t, err)
	assert.Equal(t, 9, unknown.RiskImpact)
}

func TestRiskAssessor_AmountBands(t *testing.T) {
	assessor := NewRiskAssessor(policy.Default())
	ctx := context.Background()

	cases := []struct {
		amount         string
		expectedImpact int
		wantRecs       bool
	}{
		{"999999", 0, false},
		{"1000000", 0, false},
		{"1000001", 3, false},
		{"10000000", 3, false},
		{"10000001", 5, false},
		{"50000000", 5, false},
		{"50000001", 8, true},
		{"100000000", 8, true},
		{"100000001", 15, true},
	}

	for _, tc := range cases {
		result, err := assessor.AssessAmount(ctx, tc.amount)
		require.NoError(t, err, "amount %s", tc.amount)
		assert.Equal(t, tc.expectedImpact, result.RiskImpact, "amount %s", tc.amount)
		if tc.wantRecs {
			assert.NotEmpty(t, result.Recommendations, "amount %s", tc.amount)
		} else {
			assert.Empty(t, result.Recommendations, "amount %s", tc.amount)
		}
	}
}

func TestRiskAssessor_UnparsableAmountErrors(t *testing.T) {
	assessor := NewRiskAssessor(policy.Default())

	_, err := assessor.AssessAmount(context.Background(), "not-a-number")
	assert.Error(t, err)

	_, err = assessor.AssessCommodity(context.Background(), "Electronics", "not-a-number")
	assert.Error(t, err)
}
