package port

import (
	"context"

	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// ExtractionResult holds what was read from one source document
type ExtractionResult struct {
	Kind   entity.DocumentKind
	Fields entity.ExtractedFields
	Text   string
	// Source names the strategy that produced Fields ("regex" or "ai")
	Source string
}

// DocumentExtractor turns an uploaded document into classified fields
type DocumentExtractor interface {
	Extract(ctx context.Context, name string, content []byte) (*ExtractionResult, error)
}

// TextExtractor reads the plain text of a PDF
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// AIFieldExtractor reads document fields with a language model when pattern parsing fails
type AIFieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (*ExtractionResult, error)
}

// TaxCalculator computes the federal result for aggregated income
type TaxCalculator interface {
	Calculate(info entity.PersonalInfo, income entity.IncomeSummary) (*entity.TaxResult, error)
}

// FormRenderer produces the filled form artifact
type FormRenderer interface {
	Render(ctx context.Context, info entity.PersonalInfo, result *entity.TaxResult) ([]byte, error)
}

// ChatCompleter sends a bounded conversation to a hosted language model
type ChatCompleter interface {
	Complete(ctx context.Context, messages []entity.ChatMessage) (string, error)
}
