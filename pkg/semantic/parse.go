package semantic

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/logging"
)

var (
	scorePattern    = regexp.MustCompile(`(?i)(?:score|likelihood|risk).*?([0-9]{1,3})`)
	concernPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)urgent[^.]*\.?`),
		regexp.MustCompile(`(?i)suspicious[^.]*\.?`),
		regexp.MustCompile(`(?i)phishing[^.]*\.?`),
		regexp.MustCompile(`(?i)credential[^.]*\.?`),
		regexp.MustCompile(`(?i)malicious[^.]*\.?`),
	}
)

// ParseResponse turns raw model output into a SemanticScore. It tries a
// structured JSON parse first (tolerating markdown fences), then falls back
// to regex extraction from free text, and finally to a neutral default.
// It never fails: malformed output degrades, it does not error.
func ParseResponse(text string) engine.SemanticScore {
	if score, ok := parseJSON(text); ok {
		return score
	}
	logging.Debugf("structured parse failed, extracting from text (%d bytes)", len(text))
	return extractFromText(text)
}

func parseJSON(text string) (engine.SemanticScore, bool) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		PhishingLikelihood *float64 `json:"phishing_likelihood"`
		Reasoning          string   `json:"reasoning"`
		KeyConcerns        []string `json:"key_concerns"`
		LinguisticPatterns []string `json:"linguistic_patterns"`
		ModelConfidence    *float64 `json:"model_confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return engine.SemanticScore{}, false
	}

	likelihood := 50.0
	if raw.PhishingLikelihood != nil {
		likelihood = clampRange(*raw.PhishingLikelihood, 0, 100)
	}
	confidence := 0.5
	if raw.ModelConfidence != nil {
		confidence = clampRange(*raw.ModelConfidence, 0, 1)
	}
	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	return engine.SemanticScore{
		Likelihood:         likelihood,
		Reasoning:          reasoning,
		KeyConcerns:        raw.KeyConcerns,
		LinguisticPatterns: raw.LinguisticPatterns,
		Confidence:         confidence,
	}, true
}

func extractFromText(text string) engine.SemanticScore {
	likelihood := 50.0
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			likelihood = clampRange(v, 0, 100)
		}
	}

	var concerns []string
	for _, pattern := range concernPatterns {
		matches := pattern.FindAllString(text, 2)
		concerns = append(concerns, matches...)
	}
	if len(concerns) > 5 {
		concerns = concerns[:5]
	}

	reasoning := text
	if len(reasoning) > 500 {
		reasoning = reasoning[:500] + "..."
	}

	return engine.SemanticScore{
		Likelihood:  likelihood,
		Reasoning:   reasoning,
		KeyConcerns: concerns,
		Confidence:  0.3,
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
