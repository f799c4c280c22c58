package scanners

import (
	"regexp"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/parser"
)

type contentPattern struct {
	Pattern    *regexp.Regexp
	Confidence float64
	Reason     string
}

// Social-engineering phrase patterns. Overlapping matches intentionally
// produce one indicator each so the fusion step can weight repeated
// phrasing.
var suspiciousPhrases = []contentPattern{
	{regexp.MustCompile(`(?im)urgent(?:ly)?\s+(action|response|verification|update)`), 0.8, "Urgency manipulation tactic"},
	{regexp.MustCompile(`(?im)verify\s+(your\s+)?(account|identity|information)`), 0.7, "Verification request (common phishing tactic)"},
	{regexp.MustCompile(`(?im)suspend(ed)?\s+(your\s+)?account`), 0.9, "Account suspension threat"},
	{regexp.MustCompile(`(?im)click\s+(here|below|now|immediately)`), 0.6, "Immediate action request"},
	{regexp.MustCompile(`(?im)confirm\s+(your\s+)?(identity|details|information)`), 0.7, "Information confirmation request"},
	{regexp.MustCompile(`(?im)update\s+(your\s+)?(payment|billing|card)`), 0.8, "Payment information update request"},
	{regexp.MustCompile(`(?im)limited\s+time\s+(offer|deal)`), 0.5, "Limited time pressure"},
	{regexp.MustCompile(`(?im)act\s+(now|immediately|fast|quickly)`), 0.6, "Pressure to act quickly"},
	{regexp.MustCompile(`(?im)security\s+(alert|warning|notice)`), 0.7, "Security alert (potential false alarm)"},
	{regexp.MustCompile(`(?im)dear\s+(customer|client|user)`), 0.4, "Generic greeting (legitimate emails usually use names)"},
	{regexp.MustCompile(`(?im)\$[0-9,]+\s*(million|billion|dollars?)`), 0.9, "Large money offer (likely scam)"},
	{regexp.MustCompile(`(?im)congratulations.*?(won|winner|prize)`), 0.9, "Prize/lottery scam"},
}

// Targeted phishing patterns around financial and government themes.
var phishingPatterns = []contentPattern{
	{regexp.MustCompile(`(?i)\bbank[^a-z]*(?:account|statement|alert)`), 0.7, "Banking-related content"},
	{regexp.MustCompile(`(?i)\b(?:paypal|venmo|zelle)[^a-z]*(?:account|payment)`), 0.8, "Payment service reference"},
	{regexp.MustCompile(`(?i)\b(?:social\s+security|ssn|tax\s+refund)`), 0.9, "Government/tax-related content"},
	{regexp.MustCompile(`(?i)\b(?:credit\s+card|debit\s+card)[^a-z]*(?:expir|suspend|block)`), 0.8, "Credit card threat"},
	{regexp.MustCompile(`(?i)\b(?:amazon|apple|microsoft|google)[^a-z]*(?:account|subscription)`), 0.6, "Tech company impersonation"},
	{regexp.MustCompile(`(?i)\$[0-9,]+(?:\.[0-9]{2})?.*(?:refund|reward|prize|lottery)`), 0.9, "Money offer"},
	{regexp.MustCompile(`(?i)\b(?:fbi|irs|federal|government)\b`), 0.8, "Government agency impersonation"},
}

// ContentScanner matches the body text against the phrase and phishing
// pattern tables. Every match becomes one indicator; duplicates are kept.
type ContentScanner struct{}

func (ContentScanner) Name() string { return "content" }

func (ContentScanner) Scan(meta *parser.Email, body string) ([]engine.Indicator, bool) {
	return guard(func() []engine.Indicator {
		var indicators []engine.Indicator

		for _, cp := range suspiciousPhrases {
			for _, match := range cp.Pattern.FindAllString(body, -1) {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindContent,
					Value:      match,
					Reason:     cp.Reason,
					Confidence: cp.Confidence,
					Location:   "email_body",
				})
			}
		}

		for _, cp := range phishingPatterns {
			for _, match := range cp.Pattern.FindAllString(body, -1) {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindContent,
					Value:      match,
					Reason:     cp.Reason,
					Confidence: cp.Confidence,
					Location:   "email_body",
				})
			}
		}

		return indicators
	})
}
