package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/domain/entity"
)

// maxPromptText bounds the document text sent to the model
const maxPromptText = 6000

// FieldExtractor implements port.AIFieldExtractor with JSON mode completions
type FieldExtractor struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewFieldExtractor creates the AI fallback extractor
func NewFieldExtractor(client *openai.Client, model string, prompts *PromptConfig, logger *zap.Logger) *FieldExtractor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldExtractor{client: client, model: model, prompts: prompts, logger: logger}
}

type extractedJSON struct {
	Kind            string  `json:"kind"`
	Wages           float64 `json:"wages"`
	FederalWithheld float64 `json:"federal_withheld"`
	InterestIncome  float64 `json:"interest_income"`
	NECIncome       float64 `json:"nec_income"`
}

// ExtractFields asks the model to classify the text and read its amounts
func (e *FieldExtractor) ExtractFields(ctx context.Context, text string) (*port.ExtractionResult, error) {
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	prompt, err := renderTemplate(e.prompts.FieldExtraction.UserTemplate, struct{ Text string }{text})
	if err != nil {
		return nil, err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.prompts.FieldExtraction.Temperature,
		MaxTokens:   e.prompts.FieldExtraction.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: e.prompts.FieldExtraction.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("OpenAI field extraction failed", zap.Error(err))
		return nil, fmt.Errorf("AI extraction failed: %w", err)
	}

	content, err := firstContent(resp)
	if err != nil {
		return nil, err
	}

	var parsed extractedJSON
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
	}

	return &port.ExtractionResult{
		Kind: entity.DocumentKind(parsed.Kind),
		Fields: entity.ExtractedFields{
			Wages:           parsed.Wages,
			FederalWithheld: parsed.FederalWithheld,
			InterestIncome:  parsed.InterestIncome,
			NECIncome:       parsed.NECIncome,
		},
	}, nil
}

var jsonBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls a JSON object out of a markdown code block
func extractJSON(content string) string {
	if m := jsonBlock.FindStringSubmatch(content); len(m) > 1 {
		return m[1]
	}
	return ""
}

var _ port.AIFieldExtractor = (*FieldExtractor)(nil)
