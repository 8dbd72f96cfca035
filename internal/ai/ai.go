package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// AIService holds the Gemini client. It is constructed once in main and
// injected into the handlers, never cached at module level.
type AIService struct {
	Client    *genai.Client
	ModelName string
}

// NewAIService initializes the Gemini client.
func NewAIService(ctx context.Context, apiKey string) (*AIService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &AIService{Client: client, ModelName: defaultModel}, nil
}

// Usage reports token consumption for one generation.
type Usage struct {
	TokensInput  int
	TokensOutput int
}

func (u Usage) Total() int { return u.TokensInput + u.TokensOutput }

// Analysis is the structured result of an error analysis.
type Analysis struct {
	RootCause   string   `json:"root_cause"`
	Severity    string   `json:"severity"`
	Fixes       []string `json:"fixes"`
	Explanation string   `json:"explanation"`
}

// DesignResult is the structured result of a Design Lab generation.
type DesignResult struct {
	HTML  string `json:"html"`
	CSS   string `json:"css"`
	Notes string `json:"notes"`
}

// AnalyzeError asks Gemini for a root-cause analysis of an error log and
// parses the structured JSON out of the reply.
func (s *AIService) AnalyzeError(ctx context.Context, errorLog, userContext string, tags []string) (*Analysis, Usage, error) {
	prompt := buildAnalysisPrompt(errorLog, userContext, tags)

	raw, usage, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, usage, err
	}

	var analysis Analysis
	if err := unmarshalModelJSON(raw, &analysis); err != nil {
		return nil, usage, err
	}
	if analysis.RootCause == "" {
		return nil, usage, fmt.Errorf("model returned JSON without a root_cause")
	}
	return &analysis, usage, nil
}

// GenerateDesign asks Gemini for an HTML/CSS mockup.
func (s *AIService) GenerateDesign(ctx context.Context, prompt, style string) (*DesignResult, Usage, error) {
	fullPrompt := buildDesignPrompt(prompt, style)

	raw, usage, err := s.generate(ctx, fullPrompt)
	if err != nil {
		return nil, usage, err
	}

	var result DesignResult
	if err := unmarshalModelJSON(raw, &result); err != nil {
		return nil, usage, err
	}
	if result.HTML == "" {
		return nil, usage, fmt.Errorf("model returned JSON without html")
	}
	return &result, usage, nil
}

// generate runs a single-turn generation and returns the text of the first
// candidate plus token usage from the response metadata.
func (s *AIService) generate(ctx context.Context, prompt string) (string, Usage, error) {
	modelName := s.ModelName
	if modelName == "" {
		modelName = defaultModel
	}
	model := s.Client.GenerativeModel(modelName)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", Usage{}, fmt.Errorf("error generating content: %w", err)
	}

	usage := Usage{}
	if res.UsageMetadata != nil {
		usage.TokensInput = int(res.UsageMetadata.PromptTokenCount)
		usage.TokensOutput = int(res.UsageMetadata.CandidatesTokenCount)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", usage, fmt.Errorf("model returned no candidates")
	}

	text := ""
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", usage, fmt.Errorf("model returned no text parts")
	}
	return text, usage, nil
}

// unmarshalModelJSON extracts the JSON object from raw model output and
// decodes it into v.
func unmarshalModelJSON(raw string, v interface{}) error {
	extracted, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(extracted), v); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

func buildAnalysisPrompt(errorLog, userContext string, tags []string) string {
	prompt := `You are an expert debugging assistant. Analyze the error log below and respond with ONLY a JSON object, no markdown, in this exact shape:
{"root_cause": "...", "severity": "low|medium|high|critical", "fixes": ["...", "..."], "explanation": "..."}

Error log:
` + errorLog

	if userContext != "" {
		prompt += "\n\nAdditional context from the user:\n" + userContext
	}
	if len(tags) > 0 {
		prompt += "\n\nUser-selected tags: "
		for i, tag := range tags {
			if i > 0 {
				prompt += ", "
			}
			prompt += tag
		}
	}
	return prompt
}

func buildDesignPrompt(prompt, style string) string {
	out := `You are a senior UI designer. Produce a single-page HTML/CSS mockup for the request below. Respond with ONLY a JSON object, no markdown, in this exact shape:
{"html": "...", "css": "...", "notes": "..."}

Request:
` + prompt

	if style != "" {
		out += "\n\nStyle direction: " + style
	}
	return out
}
