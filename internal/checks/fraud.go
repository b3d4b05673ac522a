package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/policy"
)

type FraudInput struct {
	ExporterName string
	BuyerName    string
	Amount       string
	Commodity    string
}

type FraudResult struct {
	Status     models.FraudStatus
	Details    []string
	RiskImpact int
}

// FraudDetector evaluates structural red flags in the party/amount/commodity
// combination. A shell-entity name pattern fails the check outright; soft
// flags (round-number magnitude, commodity/amount mismatch) fail only in
// combination and otherwise just add risk.
type FraudDetector struct {
	pol *policy.Policy
}

func NewFraudDetector(pol *policy.Policy) *FraudDetector {
	return &FraudDetector{pol: pol}
}

func (d *FraudDetector) Detect(ctx context.Context, in FraudInput) (FraudResult, error) {
	if err := ctx.Err(); err != nil {
		return FraudResult{}, err
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(in.Amount), 10, 64)
	if err != nil {
		return FraudResult{}, fmt.Errorf("parse amount %q: %w", in.Amount, err)
	}

	result := FraudResult{Status: models.FraudPassed}
	shellMatch := false
	softFlags := 0

	for _, party := range []struct{ role, name string }{
		{"exporter", in.ExporterName},
		{"buyer", in.BuyerName},
	} {
		lowered := strings.ToLower(party.name)
		for _, pattern := range d.pol.ShellEntityPatterns {
			if strings.Contains(lowered, pattern) {
				shellMatch = true
				result.RiskImpact += d.pol.ShellEntityImpact
				result.Details = append(result.Details,
					fmt.Sprintf("Fraud check: %s %q matches shell-entity pattern %q", party.role, party.name, pattern))
			}
		}
	}

	if amount >= d.pol.RoundAmountMin && amount%d.pol.RoundAmountUnit == 0 {
		softFlags++
		result.RiskImpact += d.pol.RoundAmountImpact
		result.Details = append(result.Details,
			fmt.Sprintf("Fraud check: round-number amount %d at high magnitude", amount))
	}

	if amount >= d.pol.MismatchAmountMin && isLowValueCommodity(d.pol, in.Commodity) {
		softFlags++
		result.RiskImpact += d.pol.MismatchImpact
		result.Details = append(result.Details,
			fmt.Sprintf("Fraud check: amount %d is inconsistent with commodity %q", amount, in.Commodity))
	}

	if shellMatch || softFlags >= 2 {
		result.Status = models.FraudFailed
	} else if len(result.Details) == 0 {
		result.Details = append(result.Details, "Fraud heuristics passed")
	}

	return result, nil
}

func isLowValueCommodity(pol *policy.Policy, commodity string) bool {
	lowered := strings.ToLower(strings.TrimSpace(commodity))
	for _, low := range pol.LowValueCommodities {
		if lowered == low {
			return true
		}
	}
	return false
}
