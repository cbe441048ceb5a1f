package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

// amounts always carry cents so box numbers next to labels are never captured
const amount = `\$?\s*((?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})`

var (
	necPattern = regexp.MustCompile(`(?i)1099-NEC|nonemployee\s+compensation`)
	intPattern = regexp.MustCompile(`(?i)1099-INT|interest\s+income`)
	w2Pattern  = regexp.MustCompile(`(?i)\bW-2\b|wage\s+and\s+tax\s+statement`)

	wagesPattern    = regexp.MustCompile(`(?is)wages,?\s*tips,?\s*(?:and\s+)?other\s+compensation.{0,80}?` + amount)
	withheldPattern = regexp.MustCompile(`(?is)federal\s+income\s+tax\s+withheld.{0,80}?` + amount)
	interestPattern = regexp.MustCompile(`(?is)interest\s+income.{0,80}?` + amount)
	necAmtPattern   = regexp.MustCompile(`(?is)nonemployee\s+compensation.{0,80}?` + amount)
)

// Classify detects the form kind from its text
func Classify(text string) entity.DocumentKind {
	switch {
	case necPattern.MatchString(text):
		return entity.DocumentKind1099NEC
	case intPattern.MatchString(text):
		return entity.DocumentKind1099INT
	case w2Pattern.MatchString(text):
		return entity.DocumentKindW2
	default:
		return entity.DocumentKindUnknown
	}
}

// ParseFields classifies the text and reads the amounts of its form
func ParseFields(text string) (*port.ExtractionResult, error) {
	kind := Classify(text)
	result := &port.ExtractionResult{Kind: kind, Text: text, Source: "regex"}

	var primary *regexp.Regexp
	var target *float64
	switch kind {
	case entity.DocumentKindW2:
		primary, target = wagesPattern, &result.Fields.Wages
	case entity.DocumentKind1099INT:
		primary, target = interestPattern, &result.Fields.InterestIncome
	case entity.DocumentKind1099NEC:
		primary, target = necAmtPattern, &result.Fields.NECIncome
	default:
		return nil, ErrUnsupportedDocument
	}

	v, ok, err := findAmount(primary, text)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w in %s", ErrFieldsNotFound, kind)
	}
	*target = v

	// withholding is optional on every form
	withheld, _, err := findAmount(withheldPattern, text)
	if err != nil {
		return nil, err
	}
	result.Fields.FederalWithheld = withheld

	return result, nil
}

func findAmount(re *regexp.Regexp, text string) (float64, bool, error) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid amount %q: %w", m[1], err)
	}
	if err := utils.ValidateAmount(v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}
