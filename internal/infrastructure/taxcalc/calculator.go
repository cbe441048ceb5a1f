// Package taxcalc computes the 2024 federal income tax for aggregated
// W-2, 1099-INT and 1099-NEC income.
package taxcalc

import (
	"errors"
	"fmt"
	"math"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

// ErrNegativeIncome is returned when an aggregated amount is negative
var ErrNegativeIncome = errors.New("income amounts must not be negative")

// Calculator2024 implements port.TaxCalculator with 2024 tables
type Calculator2024 struct{}

// NewCalculator2024 creates the calculator
func NewCalculator2024() *Calculator2024 {
	return &Calculator2024{}
}

// Calculate applies the standard deduction, brackets, self-employment tax and
// nonrefundable dependent credits. FormGenerated is left false for the caller.
func (c *Calculator2024) Calculate(info entity.PersonalInfo, income entity.IncomeSummary) (*entity.TaxResult, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	b := income.Breakdown
	if b.Wages < 0 || b.NECIncome < 0 || b.InterestIncome < 0 || income.FederalWithheld < 0 {
		return nil, ErrNegativeIncome
	}

	total := income.Total()
	seTax := SelfEmploymentTax(b.NECIncome, b.Wages)
	deduction := standardDeduction2024[info.FilingStatus]

	taxable := math.Max(0, total-seTax/2-deduction)
	incomeTax := BracketTax(info.FilingStatus, taxable)

	credits := float64(info.DependentChildren*childTaxCredit + info.OtherDependents*otherDependentCredit)
	credits = math.Min(credits, incomeTax)

	owed := incomeTax - credits + seTax

	return &entity.TaxResult{
		TotalIncome:       utils.RoundCents(total),
		TaxOwed:           utils.RoundCents(owed),
		FederalWithheld:   utils.RoundCents(income.FederalWithheld),
		RefundOrDue:       utils.RoundCents(income.FederalWithheld - owed),
		CreditsApplied:    utils.RoundCents(credits),
		Breakdown: entity.IncomeBreakdown{
			Wages:          utils.RoundCents(b.Wages),
			NECIncome:      utils.RoundCents(b.NECIncome),
			InterestIncome: utils.RoundCents(b.InterestIncome),
		},
		StandardDeduction: deduction,
		TaxableIncome:     utils.RoundCents(taxable),
		SelfEmploymentTax: utils.RoundCents(seTax),
	}, nil
}

// BracketTax applies the progressive brackets of status to taxable income
func BracketTax(status entity.FilingStatus, taxable float64) float64 {
	table, ok := brackets2024[status]
	if !ok {
		panic(fmt.Sprintf("no brackets for filing status %q", status))
	}

	var tax float64
	for i, br := range table {
		if taxable <= br.Floor {
			break
		}
		upper := taxable
		if i+1 < len(table) && table[i+1].Floor < taxable {
			upper = table[i+1].Floor
		}
		tax += (upper - br.Floor) * br.Rate
	}
	return tax
}

// SelfEmploymentTax computes Social Security and Medicare on net earnings.
// Wages already count against the Social Security wage base.
func SelfEmploymentTax(nec, wages float64) float64 {
	base := nec * seEarningsFactor
	if base < seMinimumEarnings {
		return 0
	}
	ssRoom := math.Max(0, socialSecurityBase-wages)
	return seSocialSecurity*math.Min(base, ssRoom) + seMedicare*base
}

var _ port.TaxCalculator = (*Calculator2024)(nil)
