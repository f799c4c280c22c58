package semantic

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/user/phishguard/pkg/engine"
)

//go:embed prompts/analysis_prompt.md
var analysisPrompt string

type indicatorSummary struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// BuildPrompt renders the analysis prompt with the email summary and the
// deterministic findings embedded as JSON blocks.
func BuildPrompt(summary engine.EmailSummary, indicators []engine.Indicator) (string, error) {
	emailInfo, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}

	summaries := make([]indicatorSummary, 0, len(indicators))
	for _, ind := range indicators {
		summaries = append(summaries, indicatorSummary{
			Type:       string(ind.Kind),
			Value:      ind.Value,
			Reason:     ind.Reason,
			Confidence: ind.Confidence,
		})
	}
	findings, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := strings.ReplaceAll(analysisPrompt, "%EMAIL_INFO%", string(emailInfo))
	prompt = strings.ReplaceAll(prompt, "%INDICATOR_SUMMARY%", string(findings))
	return prompt, nil
}
