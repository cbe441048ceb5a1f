package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

const w2Text = `Form W-2 Wage and Tax Statement 2024
a Employee's social security number 123-45-6789
1 Wages, tips, other compensation 52,340.15
2 Federal income tax withheld 5,120.00
3 Social security wages 52,340.15`

const intText = `Form 1099-INT Interest Income
PAYER'S name First Bank
1 Interest income $ 312.44
4 Federal income tax withheld $ 0.00`

const necText = `Form 1099-NEC Nonemployee Compensation
1 Nonemployee compensation 12000.00
4 Federal income tax withheld 1200.00`

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want entity.DocumentKind
	}{
		{"w2", w2Text, entity.DocumentKindW2},
		{"1099-int", intText, entity.DocumentKind1099INT},
		{"1099-nec", necText, entity.DocumentKind1099NEC},
		{"lowercase w2 title", "wage and tax statement", entity.DocumentKindW2},
		{"unknown", "Grocery receipt total 12.00", entity.DocumentKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind entity.DocumentKind
		want entity.ExtractedFields
	}{
		{
			name: "w2",
			text: w2Text,
			kind: entity.DocumentKindW2,
			want: entity.ExtractedFields{Wages: 52340.15, FederalWithheld: 5120},
		},
		{
			name: "1099-int",
			text: intText,
			kind: entity.DocumentKind1099INT,
			want: entity.ExtractedFields{InterestIncome: 312.44},
		},
		{
			name: "1099-nec",
			text: necText,
			kind: entity.DocumentKind1099NEC,
			want: entity.ExtractedFields{NECIncome: 12000, FederalWithheld: 1200},
		},
		{
			name: "w2 without withholding",
			text: "Form W-2\n1 Wages, tips, other compensation 800.00",
			kind: entity.DocumentKindW2,
			want: entity.ExtractedFields{Wages: 800},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFields(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, result.Kind)
			assert.Equal(t, tt.want, result.Fields)
			assert.Equal(t, "regex", result.Source)
		})
	}
}

func TestParseFields_Errors(t *testing.T) {
	_, err := ParseFields("Grocery receipt total 12.00")
	assert.ErrorIs(t, err, ErrUnsupportedDocument)

	_, err = ParseFields("Form W-2 Wage and Tax Statement\n1 Wages, tips, other compensation\n")
	assert.ErrorIs(t, err, ErrFieldsNotFound)
}
