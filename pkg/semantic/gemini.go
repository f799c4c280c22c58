package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/logging"
)

type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts Options) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxTokens)
	}
	// Ask for JSON so the structured parse usually succeeds on the first try.
	model.ResponseMIMEType = "application/json"

	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// Only list models that support content generation (rough filter)
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// Classify sends the analysis prompt and parses the structured assessment
// out of the first candidate.
func (g *GeminiProvider) Classify(ctx context.Context, summary engine.EmailSummary, indicators []engine.Indicator) (engine.SemanticScore, error) {
	prompt, err := BuildPrompt(summary, indicators)
	if err != nil {
		return engine.SemanticScore{}, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return engine.SemanticScore{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return engine.SemanticScore{}, fmt.Errorf("no response candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return engine.SemanticScore{}, fmt.Errorf("empty response content")
	}

	score := ParseResponse(sb.String())
	logging.Debugf("gemini classification: likelihood=%.1f confidence=%.2f", score.Likelihood, score.Confidence)
	return score, nil
}

// TestConnection issues a trivial generation request to verify the API key
// and model are usable.
func (g *GeminiProvider) TestConnection(ctx context.Context) (bool, string) {
	resp, err := g.model.GenerateContent(ctx, genai.Text("Respond with 'OK' to confirm API connectivity."))
	if err != nil {
		return false, fmt.Sprintf("Gemini API error: %v", err)
	}
	if len(resp.Candidates) == 0 {
		return false, "Gemini API response empty"
	}
	return true, "Gemini API connected successfully"
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
