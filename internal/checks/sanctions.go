package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

type ScreeningInput struct {
	ExporterName    string
	BuyerName       string
	SupplierCountry string
	BuyerCountry    string
}

type ScreeningResult struct {
	Status     models.SanctionsStatus
	Details    []string
	RiskImpact int
}

// SanctionsScreener screens party names and countries against the sanctions
// policy. Matching is a case-insensitive fragment match, which covers both
// exact names and close variants of listed entities.
type SanctionsScreener struct {
	pol *policy.Policy
}

func NewSanctionsScreener(pol *policy.Policy) *SanctionsScreener {
	return &SanctionsScreener{pol: pol}
}

func (s *SanctionsScreener) Screen(ctx context.Context, in ScreeningInput) (ScreeningResult, error) {
	if err := ctx.Err(); err != nil {
		return ScreeningResult{}, err
	}

	result := ScreeningResult{Status: models.SanctionsClear}

	parties := []struct{ role, name string }{
		{"exporter", in.ExporterName},
		{"buyer", in.BuyerName},
	}
	for _, party := range parties {
		lowered := strings.ToLower(party.name)
		for _, entity := range s.pol.SanctionedEntities {
			if strings.Contains(lowered, entity) {
				result.Status = models.SanctionsFlagged
				result.RiskImpact += s.pol.SanctionsImpact
				result.Details = append(result.Details,
					fmt.Sprintf("Sanctions screening flagged %s %q: matches listed entity %q", party.role, party.name, entity))
			}
		}
	}

	countries := []struct{ role, name string }{
		{"supplier country", in.SupplierCountry},
		{"buyer country", in.BuyerCountry},
	}
	for _, country := range countries {
		lowered := strings.ToLower(strings.TrimSpace(country.name))
		for _, listed := range s.pol.SanctionedCountries {
			if lowered == listed || strings.Contains(lowered, listed) {
				result.Status = models.SanctionsFlagged
				result.RiskImpact += s.pol.SanctionsImpact
				result.Details = append(result.Details,
					fmt.Sprintf("Sanctions screening flagged %s %q: country is under sanctions", country.role, country.name))
			}
		}
	}

	if result.Status == models.SanctionsClear {
		result.Details = append(result.Details, "Sanctions screening clear for all parties")
	}

	return result, nil
}
