package taxcalc

import "github.com/garyjia/ai-tax-agent/internal/domain/entity"

// bracket is the marginal rate applied to income above Floor
type bracket struct {
	Floor float64
	Rate  float64
}

var rates = []float64{0.10, 0.12, 0.22, 0.24, 0.32, 0.35, 0.37}

func brackets(thresholds ...float64) []bracket {
	out := []bracket{{Floor: 0, Rate: rates[0]}}
	for i, t := range thresholds {
		out = append(out, bracket{Floor: t, Rate: rates[i+1]})
	}
	return out
}

var standardDeduction2024 = map[entity.FilingStatus]float64{
	entity.FilingStatusSingle:          14600,
	entity.FilingStatusMarriedJoint:    29200,
	entity.FilingStatusWidow:           29200,
	entity.FilingStatusMarriedSeparate: 14600,
	entity.FilingStatusHeadOfHousehold: 21900,
}

var brackets2024 = map[entity.FilingStatus][]bracket{
	entity.FilingStatusSingle:          brackets(11600, 47150, 100525, 191950, 243725, 609350),
	entity.FilingStatusMarriedJoint:    brackets(23200, 94300, 201050, 383900, 487450, 731200),
	entity.FilingStatusWidow:           brackets(23200, 94300, 201050, 383900, 487450, 731200),
	entity.FilingStatusMarriedSeparate: brackets(11600, 47150, 100525, 191950, 243725, 365600),
	entity.FilingStatusHeadOfHousehold: brackets(16550, 63100, 100500, 191950, 243700, 609350),
}

const (
	childTaxCredit       = 2000
	otherDependentCredit = 500

	seEarningsFactor   = 0.9235
	seSocialSecurity   = 0.124
	seMedicare         = 0.029
	seMinimumEarnings  = 400
	socialSecurityBase = 168600
)
