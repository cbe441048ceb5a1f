package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
)

// PDFTextExtractor reads page text with mupdf
type PDFTextExtractor struct {
	maxPages int
	logger   *zap.Logger
}

// NewPDFTextExtractor creates an extractor reading at most maxPages pages (0 means all)
func NewPDFTextExtractor(maxPages int, logger *zap.Logger) *PDFTextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFTextExtractor{maxPages: maxPages, logger: logger}
}

// ExtractText returns the text of every page joined by newlines
func (e *PDFTextExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnreadablePDF)
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return "", fmt.Errorf("%w: no pages", ErrUnreadablePDF)
	}
	if e.maxPages > 0 && pages > e.maxPages {
		pages = e.maxPages
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract page text", zap.Int("page", i), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	e.logger.Debug("Extracted PDF text", zap.Int("pages", pages), zap.Int("chars", sb.Len()))
	return sb.String(), nil
}

var _ port.TextExtractor = (*PDFTextExtractor)(nil)
