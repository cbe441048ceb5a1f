package taxcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

func summary(wages, nec, interest, withheld float64) entity.IncomeSummary {
	return entity.IncomeSummary{
		Breakdown:       entity.IncomeBreakdown{Wages: wages, NECIncome: nec, InterestIncome: interest},
		FederalWithheld: withheld,
	}
}

func TestCalculator2024_Calculate(t *testing.T) {
	tests := []struct {
		name        string
		info        entity.PersonalInfo
		income      entity.IncomeSummary
		wantTax     float64
		wantRefund  float64
		wantCredits float64
	}{
		{
			name:       "single w2 refund",
			info:       entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle},
			income:     summary(50000, 0, 0, 5000),
			wantTax:    4016,
			wantRefund: 984,
		},
		{
			name:        "married joint with children",
			info:        entity.PersonalInfo{FilingStatus: entity.FilingStatusMarriedJoint, DependentChildren: 2},
			income:      summary(80000, 0, 0, 1000),
			wantTax:     1632,
			wantRefund:  -632,
			wantCredits: 4000,
		},
		{
			name:        "credits capped at income tax",
			info:        entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle, DependentChildren: 3},
			income:      summary(20000, 0, 0, 0),
			wantTax:     0,
			wantRefund:  0,
			wantCredits: 540,
		},
		{
			name:        "other dependents credit",
			info:        entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle, OtherDependents: 1},
			income:      summary(50000, 0, 0, 5000),
			wantTax:     3516,
			wantRefund:  1484,
			wantCredits: 500,
		},
		{
			name:       "income below standard deduction",
			info:       entity.PersonalInfo{FilingStatus: entity.FilingStatusHeadOfHousehold},
			income:     summary(10000, 0, 500, 300),
			wantTax:    0,
			wantRefund: 300,
		},
	}

	calc := NewCalculator2024()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Calculate(tt.info, tt.income)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTax, result.TaxOwed, 0.01)
			assert.InDelta(t, tt.wantRefund, result.RefundOrDue, 0.01)
			assert.InDelta(t, tt.wantCredits, result.CreditsApplied, 0.01)
			assert.Equal(t, tt.income.Total(), result.TotalIncome)
			assert.False(t, result.FormGenerated)
		})
	}
}

func TestCalculator2024_SelfEmployment(t *testing.T) {
	result, err := NewCalculator2024().Calculate(
		entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle},
		summary(0, 20000, 0, 0),
	)
	require.NoError(t, err)

	// 20000 * 0.9235 * 0.153
	assert.InDelta(t, 2825.91, result.SelfEmploymentTax, 0.02)
	assert.InDelta(t, 3987.05, result.TaxableIncome, 0.02)
	assert.InDelta(t, 398.70+2825.91, result.TaxOwed, 0.02)
	assert.Equal(t, 20000.0, result.Breakdown.NECIncome)
}

func TestSelfEmploymentTax(t *testing.T) {
	assert.Equal(t, 0.0, SelfEmploymentTax(400, 0), "below the $400 net earnings floor")
	assert.InDelta(t, 0.029*0.9235*50000, SelfEmploymentTax(50000, 200000), 0.01, "wages above the wage base leave only medicare")

	// 10000 of social security room left
	base := 50000 * 0.9235
	assert.InDelta(t, 0.124*10000+0.029*base, SelfEmploymentTax(50000, 158600), 0.01)
}

func TestBracketTax(t *testing.T) {
	tests := []struct {
		status  entity.FilingStatus
		taxable float64
		want    float64
	}{
		{entity.FilingStatusSingle, 0, 0},
		{entity.FilingStatusSingle, 11600, 1160},
		{entity.FilingStatusSingle, 47150, 1160 + 0.12*35550},
		{entity.FilingStatusMarriedJoint, 23200, 2320},
		{entity.FilingStatusHeadOfHousehold, 16550, 1655},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, BracketTax(tt.status, tt.taxable), 0.001, "%s %.0f", tt.status, tt.taxable)
	}

	// top bracket for married filing separately starts at 365600
	mfs := BracketTax(entity.FilingStatusMarriedSeparate, 365700) - BracketTax(entity.FilingStatusMarriedSeparate, 365600)
	assert.InDelta(t, 37.0, mfs, 0.001)

	assert.Panics(t, func() { BracketTax(entity.FilingStatusUnset, 100) })
}

func TestCalculator2024_Errors(t *testing.T) {
	calc := NewCalculator2024()

	_, err := calc.Calculate(entity.PersonalInfo{}, summary(1, 0, 0, 0))
	assert.ErrorIs(t, err, entity.ErrFilingStatusRequired)

	_, err = calc.Calculate(entity.PersonalInfo{FilingStatus: entity.FilingStatusSingle}, summary(-1, 0, 0, 0))
	assert.ErrorIs(t, err, ErrNegativeIncome)
}
