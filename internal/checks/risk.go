package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

type CommodityResult struct {
	Status          models.CommodityStatus
	Details         []string
	RiskImpact      int
	Recommendations []string
}

type CorridorResult struct {
	Details    []string
	RiskImpact int
}

type AmountResult struct {
	Details         []string
	RiskImpact      int
	Recommendations []string
}

// RiskAssessor runs the three independent risk sub-assessments: commodity
// class, geographic corridor, and amount magnitude.
type RiskAssessor struct {
	pol *policy.Policy
}

func NewRiskAssessor(pol *policy.Policy) *RiskAssessor {
	return &RiskAssessor{pol: pol}
}

func (r *RiskAssessor) AssessCommodity(ctx context.Context, commodity, amount string) (CommodityResult, error) {
	if err := ctx.Err(); err != nil {
		return CommodityResult{}, err
	}

	value, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
	if err != nil {
		return CommodityResult{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	class, known := r.pol.CommodityClassFor(commodity)
	result := CommodityResult{
		Status:     models.CommodityApproved,
		RiskImpact: class.RiskImpact,
	}

	switch {
	case class.Restricted:
		result.Status = models.CommodityRejected
		result.Details = append(result.Details,
			fmt.Sprintf("Commodity risk: %q is a restricted commodity", commodity))
	case !known:
		result.Details = append(result.Details,
			fmt.Sprintf("Commodity risk: %q is not a classified commodity", commodity))
	default:
		result.Details = append(result.Details,
			fmt.Sprintf("Commodity risk assessed for %q", commodity))
	}

	// Elevated-risk commodities at very high magnitudes carry extra weight.
	if class.RiskImpact >= 12 && !class.Restricted && value >= 100_000_000 {
		result.RiskImpact += 5
		result.Details = append(result.Details,
			fmt.Sprintf("Commodity risk: high-value shipment (%d) of elevated-risk commodity %q", value, commodity))
	}

	if class.Recommendation != "" {
		result.Recommendations = append(result.Recommendations, class.Recommendation)
	}

	return result, nil
}

func (r *RiskAssessor) AssessCorridor(ctx context.Context, supplierCountry, buyerCountry string) (CorridorResult, error) {
	if err := ctx.Err(); err != nil {
		return CorridorResult{}, err
	}

	supplierTier := r.pol.CountryTier(supplierCountry)
	buyerTier := r.pol.CountryTier(buyerCountry)
	impact := r.pol.TierImpacts[supplierTier] + r.pol.TierImpacts[buyerTier]

	return CorridorResult{
		RiskImpact: impact,
		Details: []string{fmt.Sprintf("Geographic risk: corridor %s (tier %d) -> %s (tier %d)",
			supplierCountry, supplierTier, buyerCountry, buyerTier)},
	}, nil
}

func (r *RiskAssessor) AssessAmount(ctx context.Context, amount string) (AmountResult, error) {
	if err := ctx.Err(); err != nil {
		return AmountResult{}, err
	}

	value, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
	if err != nil {
		return AmountResult{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}

	band := r.pol.AmountBandFor(value)
	result := AmountResult{
		RiskImpact: band.RiskImpact,
		Details:    []string{fmt.Sprintf("Amount risk assessed for %d", value)},
	}
	result.Recommendations = append(result.Recommendations, band.Recommendations...)

	return result, nil
}
