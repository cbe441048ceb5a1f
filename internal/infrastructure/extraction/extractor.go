package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
)

// Extractor reads a PDF, parses its fields with patterns and falls back to
// the AI extractor when the patterns cannot find the amounts
type Extractor struct {
	text   port.TextExtractor
	ai     port.AIFieldExtractor
	logger *zap.Logger
}

// NewExtractor creates a document extractor; ai may be nil to disable the fallback
func NewExtractor(text port.TextExtractor, ai port.AIFieldExtractor, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{text: text, ai: ai, logger: logger}
}

// Extract implements port.DocumentExtractor
func (e *Extractor) Extract(ctx context.Context, name string, content []byte) (*port.ExtractionResult, error) {
	text, err := e.text.ExtractText(ctx, content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	result, err := ParseFields(text)
	if err == nil {
		e.logger.Info("Document fields extracted",
			zap.String("name", name),
			zap.String("kind", string(result.Kind)),
			zap.String("source", result.Source))
		return result, nil
	}

	if e.ai == nil || !errors.Is(err, ErrFieldsNotFound) && !errors.Is(err, ErrUnsupportedDocument) {
		return nil, err
	}

	e.logger.Warn("Pattern extraction failed, falling back to AI", zap.String("name", name), zap.Error(err))
	aiResult, aiErr := e.ai.ExtractFields(ctx, text)
	if aiErr != nil {
		e.logger.Error("AI extraction failed", zap.String("name", name), zap.Error(aiErr))
		return nil, fmt.Errorf("%w (ai fallback: %v)", err, aiErr)
	}
	if !aiResult.Kind.IsSupported() {
		return nil, ErrUnsupportedDocument
	}
	aiResult.Text = text
	aiResult.Source = "ai"
	return aiResult, nil
}

var _ port.DocumentExtractor = (*Extractor)(nil)
