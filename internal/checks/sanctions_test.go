package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

func cleanScreeningInput() ScreeningInput {
	return ScreeningInput{
		ExporterName:    "Pacific Components Pte Ltd",
		BuyerName:       "Midwest Distribution Inc",
		SupplierCountry: "Singapore",
		BuyerCountry:    "United States",
	}
}

func TestSanctionsScreener_Clear(t *testing.T) {
	screener := NewSanctionsScreener(policy.Default())

	result, err := screener.Screen(context.Background(), cleanScreeningInput())
	require.NoError(t, err)
	assert.Equal(t, models.SanctionsClear, result.Status)
	assert.Zero(t, result.RiskImpact)
	assert.Equal(t, []string{"Sanctions screening clear for all parties"}, result.Details)
}

func TestSanctionsScreener_FlagsListedEntity(t *testing.T) {
	pol := policy.Default()
	screener := NewSanctionsScreener(pol)

	in := cleanScreeningInput()
	in.ExporterName = "Sanctioned Trading Co"

	result, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SanctionsFlagged, result.Status)
	assert.Equal(t, pol.SanctionsImpact, result.RiskImpact)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0], "exporter")
	assert.Contains(t, result.Details[0], "Sanctioned Trading Co")
}

func TestSanctionsScreener_FlagsFuzzyEntityVariant(t *testing.T) {
	screener := NewSanctionsScreener(policy.Default())

	in := cleanScreeningInput()
	in.BuyerName = "Global SANCTIONED TRADING Partners LLC"

	result, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SanctionsFlagged, result.Status)
}

func TestSanctionsScreener_FlagsSanctionedCountry(t *testing.T) {
	pol := policy.Default()
	screener := NewSanctionsScreener(pol)

	in := cleanScreeningInput()
	in.BuyerCountry = "North Korea"

	result, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SanctionsFlagged, result.Status)
	assert.Equal(t, pol.SanctionsImpact, result.RiskImpact)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0], "buyer country")
}

func TestSanctionsScreener_MultipleMatchesAccumulate(t *testing.T) {
	pol := policy.Default()
	screener := NewSanctionsScreener(pol)

	in := ScreeningInput{
		ExporterName:    "Embargo Holdings SA",
		BuyerName:       "Blocked Logistics GmbH",
		SupplierCountry: "Iran",
		BuyerCountry:    "Syria",
	}

	result, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SanctionsFlagged, result.Status)
	assert.Equal(t, 4*pol.SanctionsImpact, result.RiskImpact)
	assert.Len(t, result.Details, 4)
}

func TestSanctionsScreener_Deterministic(t *testing.T) {
	screener := NewSanctionsScreener(policy.Default())

	in := ScreeningInput{
		ExporterName:    "Embargo Holdings SA",
		BuyerName:       "Blocked Logistics GmbH",
		SupplierCountry: "Iran",
		BuyerCountry:    "Cuba",
	}

	first, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	second, err := screener.Screen(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
