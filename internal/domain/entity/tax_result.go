package entity

import "time"

// IncomeBreakdown splits total income by source category
type IncomeBreakdown struct {
	Wages          float64 `json:"wages"`
	NECIncome      float64 `json:"necIncome"`
	InterestIncome float64 `json:"interestIncome"`
}

// IncomeSummary is the registry aggregate fed into the tax calculator
type IncomeSummary struct {
	Breakdown       IncomeBreakdown
	FederalWithheld float64
	DocumentCount   int
}

// Total returns the sum of all income categories
func (s IncomeSummary) Total() float64 {
	return s.Breakdown.Wages + s.Breakdown.NECIncome + s.Breakdown.InterestIncome
}

// TaxResult is produced by the computation service from the current registry.
// RefundOrDue is signed: non-negative means refund.
type TaxResult struct {
	TotalIncome       float64         `json:"totalIncome"`
	TaxOwed           float64         `json:"taxOwed"`
	FederalWithheld   float64         `json:"federalWithheld"`
	RefundOrDue       float64         `json:"refundOrDue"`
	CreditsApplied    float64         `json:"creditsApplied"`
	FormGenerated     bool            `json:"formGenerated"`
	Breakdown         IncomeBreakdown `json:"breakdown"`
	StandardDeduction float64         `json:"standardDeduction"`
	TaxableIncome     float64         `json:"taxableIncome"`
	SelfEmploymentTax float64         `json:"selfEmploymentTax"`
}

// IsRefund returns true when the filer gets money back
func (r *TaxResult) IsRefund() bool {
	return r.RefundOrDue >= 0
}

// TaxComputation records one computation run and its artifact
type TaxComputation struct {
	ID           int64
	FilingStatus FilingStatus
	Result       TaxResult
	ArtifactName string
	CreatedAt    time.Time
}
