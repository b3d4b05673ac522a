// Package policy holds the versioned screening and risk tables the check
// services evaluate against. A Policy is constructed once and injected; the
// verdict records which version produced it, so a score is reproducible for a
// fixed (input, policy version) pair.
package policy

import "strings"

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type CommodityClass struct {
	RiskImpact     int
	Restricted     bool
	Recommendation string
}

type AmountBand struct {
	UpTo            int64 // inclusive; the last band uses UpTo = 0 (open-ended)
	RiskImpact      int
	Recommendations []string
}

type Policy struct {
	Version string

	// Baseline and aggregation knobs.
	BaselineScore         int
	InvalidationThreshold int
	CheckErrorPenalty     int

	// Document integrity.
	InvalidDocumentImpact int

	// Sanctions screening. Fragment matching is case-insensitive.
	SanctionedEntities  []string
	SanctionedCountries []string
	SanctionsImpact     int

	// Fraud heuristics.
	ShellEntityPatterns []string
	ShellEntityImpact   int
	RoundAmountMin      int64
	RoundAmountUnit     int64
	RoundAmountImpact   int
	MismatchAmountMin   int64
	MismatchImpact      int
	LowValueCommodities []string

	// Risk assessment.
	Commodities      map[string]CommodityClass
	UnknownCommodity CommodityClass
	CountryTiers     map[string]int
	TierImpacts      map[int]int
	DefaultTier      int
	AmountBands      []AmountBand
}

// Default returns the active policy tables.
func Default() *Policy {
	return &Policy{
		Version: "2024.1",

		BaselineScore:         10,
		InvalidationThreshold: 80,
		CheckErrorPenalty:     25,

		InvalidDocumentImpact: 15,

		SanctionedEntities: []string{
			"sanctioned trading",
			"blocked logistics",
			"denied exports",
			"embargo holdings",
			"restricted maritime",
		},
		SanctionedCountries: []string{
			"north korea",
			"iran",
			"syria",
			"cuba",
			"crimea",
		},
		SanctionsImpact: 50,

		ShellEntityPatterns: []string{
			"shell",
			"offshore holdings",
			"anonymous",
			"bearer",
			"nominee",
		},
		ShellEntityImpact: 45,
		RoundAmountMin:    10_000_000,
		RoundAmountUnit:   1_000_000,
		RoundAmountImpact: 8,
		MismatchAmountMin: 500_000_000,
		MismatchImpact:    12,
		LowValueCommodities: []string{
			"textiles",
			"agricultural products",
			"furniture",
		},

		Commodities: map[string]CommodityClass{
			"electronics":           {RiskImpact: 3},
			"machinery":             {RiskImpact: 3},
			"textiles":              {RiskImpact: 3},
			"agricultural products": {RiskImpact: 3},
			"automotive parts":      {RiskImpact: 3},
			"furniture":             {RiskImpact: 3},
			"gold":                  {RiskImpact: 12, Recommendation: "Enhanced due diligence recommended for precious metals"},
			"precious metals":       {RiskImpact: 12, Recommendation: "Enhanced due diligence recommended for precious metals"},
			"gemstones":             {RiskImpact: 12, Recommendation: "Enhanced due diligence recommended for gemstones"},
			"diamonds":              {RiskImpact: 12, Recommendation: "Enhanced due diligence recommended for diamonds"},
			"crude oil":             {RiskImpact: 12, Recommendation: "Verify export licensing for crude oil shipments"},
			"tobacco":               {RiskImpact: 12, Recommendation: "Verify excise documentation for tobacco shipments"},
			"weapons":               {RiskImpact: 35, Restricted: true},
			"ammunition":            {RiskImpact: 35, Restricted: true},
			"dual-use goods":        {RiskImpact: 35, Restricted: true},
			"uranium":               {RiskImpact: 35, Restricted: true},
		},
		UnknownCommodity: CommodityClass{
			RiskImpact:     10,
			Recommendation: "Manual commodity classification recommended",
		},

		CountryTiers: map[string]int{
			"singapore":            1,
			"united states":        1,
			"germany":              1,
			"japan":                1,
			"united kingdom":       1,
			"france":               1,
			"netherlands":          1,
			"switzerland":          1,
			"canada":               1,
			"australia":            1,
			"south korea":          1,
			"india":                2,
			"china":                2,
			"brazil":               2,
			"mexico":               2,
			"vietnam":              2,
			"indonesia":            2,
			"turkey":               2,
			"south africa":         2,
			"united arab emirates": 2,
			"thailand":             2,
			"afghanistan":          3,
			"somalia":              3,
			"yemen":                3,
			"libya":                3,
			"south sudan":          3,
			"myanmar":              3,
			"venezuela":            3,
		},
		TierImpacts: map[int]int{1: 1, 2: 8, 3: 20},
		DefaultTier: 2,

		AmountBands: []AmountBand{
			{UpTo: 1_000_000, RiskImpact: 0},
			{UpTo: 10_000_000, RiskImpact: 3},
			{UpTo: 50_000_000, RiskImpact: 5},
			{UpTo: 100_000_000, RiskImpact: 8, Recommendations: []string{
				"Manual review recommended for amounts above 50,000,000",
			}},
			{UpTo: 0, RiskImpact: 15, Recommendations: []string{
				"Manual review recommended for amounts above 50,000,000",
				"Consider splitting shipment across multiple invoices",
			}},
		},
	}
}

// CountryTier returns the risk tier for a country name, falling back to the
// default tier for countries absent from the table.
func (p *Policy) CountryTier(country string) int {
	if tier, ok := p.CountryTiers[normalize(country)]; ok {
		return tier
	}
	return p.DefaultTier
}

// CommodityClassFor returns the class for a commodity and whether it was
// present in the table.
func (p *Policy) CommodityClassFor(commodity string) (CommodityClass, bool) {
	class, ok := p.Commodities[normalize(commodity)]
	if !ok {
		return p.UnknownCommodity, false
	}
	return class, true
}

// AmountBandFor returns the band an amount falls into.
func (p *Policy) AmountBandFor(amount int64) AmountBand {
	for _, band := range p.AmountBands {
		if band.UpTo != 0 && amount <= band.UpTo {
			return band
		}
	}
	return p.AmountBands[len(p.AmountBands)-1]
}
