package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the OpenAI adapters
type PromptConfig struct {
	Advisor struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		System      string  `yaml:"system"`
	} `yaml:"advisor"`

	FieldExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"field_extraction"`
}

const taxAdvisorPrompt = `You are a tax assistant that ONLY answers US tax questions.
If asked about other topics, respond: "I specialize in US taxes. Ask about W-2s, 1099s, deductions, or filing."

Current tax year: 2024
Key rules:
- Standard deduction: $14,600 (single), $29,200 (married)
- Child tax credit: $2,000 per child
Keep responses under 100 words.`

const fieldExtractionSystem = `You read US tax information returns (W-2, 1099-INT, 1099-NEC) from extracted PDF text.
Respond with a single JSON object and nothing else.`

const fieldExtractionTemplate = `Identify the form and read its amounts from this text:

{{.Text}}

Return JSON with this structure:
{
  "kind": "W-2" | "1099-INT" | "1099-NEC" | "UNKNOWN",
  "wages": float,            // W-2 box 1
  "federal_withheld": float, // W-2 box 2, 1099 box 4
  "interest_income": float,  // 1099-INT box 1
  "nec_income": float        // 1099-NEC box 1
}
Use 0 for amounts that are not present.`

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.Advisor.Temperature = 0.2
	p.Advisor.MaxTokens = 150
	p.Advisor.System = taxAdvisorPrompt
	p.FieldExtraction.Temperature = 0.1
	p.FieldExtraction.MaxTokens = 300
	p.FieldExtraction.System = fieldExtractionSystem
	p.FieldExtraction.UserTemplate = fieldExtractionTemplate
	return &p
}

// LoadPrompts overlays a YAML prompt file on the defaults. An empty path returns the defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	prompts := DefaultPrompts()
	if promptsPath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	return prompts, nil
}

func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
