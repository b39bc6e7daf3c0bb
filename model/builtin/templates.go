// Package builtin provides the composition templates seeded into every registry.
package builtin

import (
	"time"

	"github.com/viant/composer/model"
)

const (
	KYCComplianceID    = "kyc-compliance"
	RiskAssessmentID   = "risk-assessment"
	DataIntegrityID    = "data-integrity"
	FullDueDiligenceID = "full-due-diligence"
)

// Templates returns fresh copies of the built-in templates.
func Templates() []*model.CompositionTemplate {
	return []*model.CompositionTemplate{
		KYCCompliance(),
		RiskAssessment(),
		DataIntegrity(),
		FullDueDiligence(),
	}
}

// KYCCompliance verifies the legal entity, screens it against sanctions lists
// and optionally checks regulatory filings.
func KYCCompliance() *model.CompositionTemplate {
	return &model.CompositionTemplate{
		ID:          KYCComplianceID,
		Name:        "KYC Compliance",
		Version:     "1.0.0",
		Description: "Legal entity verification followed by sanctions screening, with an optional regulatory filing check",
		Components: []*model.ProofComponent{
			{
				ID:       "entity-verification",
				ToolName: "gleif-lei-verification",
				Timeout:  30 * time.Second,
				CacheKey: "gleif-{companyName}",
			},
			{
				ID:           "sanctions-screening",
				ToolName:     "ofac-sanctions-screening",
				Dependencies: []string{"entity-verification"},
				Timeout:      30 * time.Second,
			},
			{
				ID:       "regulatory-filing",
				ToolName: "sec-edgar-filing",
				Optional: true,
				Timeout:  45 * time.Second,
				CacheKey: "sec-{companyName}",
			},
		},
		Aggregation: model.AllRequired{},
	}
}

// RiskAssessment scores credit, AML and ESG checks.
func RiskAssessment() *model.CompositionTemplate {
	threshold := 0.7
	return &model.CompositionTemplate{
		ID:          RiskAssessmentID,
		Name:        "Risk Assessment",
		Version:     "1.0.0",
		Description: "Weighted credit, anti money laundering and ESG risk scoring",
		Components: []*model.ProofComponent{
			{ID: "credit-check", ToolName: "credit-risk-assessment", Timeout: time.Minute, CacheKey: "credit-{companyName}"},
			{ID: "aml-check", ToolName: "aml-transaction-screening", Timeout: time.Minute},
			{ID: "esg-check", ToolName: "esg-rating-verification", Optional: true, Timeout: time.Minute},
		},
		Aggregation: model.Weighted{
			Weights:   map[string]float64{"credit-check": 0.4, "aml-check": 0.35, "esg-check": 0.25},
			Threshold: &threshold,
		},
	}
}

// DataIntegrity runs independent integrity checks in parallel.
func DataIntegrity() *model.CompositionTemplate {
	return &model.CompositionTemplate{
		ID:          DataIntegrityID,
		Name:        "Data Integrity",
		Version:     "1.0.0",
		Description: "Parallel document hash, signature and timestamp verification",
		Components: []*model.ProofComponent{
			{ID: "hash-verification", ToolName: "document-hash-verification", Timeout: 20 * time.Second},
			{ID: "signature-verification", ToolName: "digital-signature-verification", Timeout: 20 * time.Second},
			{ID: "timestamp-verification", ToolName: "timestamp-authority-verification", Timeout: 20 * time.Second},
		},
		Aggregation: model.AllRequired{},
	}
}

// FullDueDiligence composes the other built-in templates.
func FullDueDiligence() *model.CompositionTemplate {
	threshold := 0.6
	return &model.CompositionTemplate{
		ID:          FullDueDiligenceID,
		Name:        "Full Due Diligence",
		Version:     "1.0.0",
		Description: "Composition of KYC, risk and data integrity templates",
		Components: []*model.ProofComponent{
			{ID: "kyc", ToolName: model.TemplateToolPrefix + KYCComplianceID},
			{ID: "risk", ToolName: model.TemplateToolPrefix + RiskAssessmentID, Dependencies: []string{"kyc"}},
			{ID: "integrity", ToolName: model.TemplateToolPrefix + DataIntegrityID},
		},
		Aggregation: model.Weighted{
			Weights:   map[string]float64{"kyc": 0.5, "risk": 0.3, "integrity": 0.2},
			Threshold: &threshold,
		},
	}
}
