package scanners

import (
	"regexp"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/parser"
)

var suspiciousSubjectPatterns = []contentPattern{
	{regexp.MustCompile(`(?i)\bURGENT\b`), 0.6, "Urgent subject line"},
	{regexp.MustCompile(`(?i)\bIMMEDIATE\b`), 0.6, "Immediate action subject"},
	{regexp.MustCompile(`(?i)^(?:RE:|FW:)\s*$`), 0.7, "Empty reply/forward subject"},
	{regexp.MustCompile(`[!]{3,}`), 0.5, "Excessive exclamation marks"},
	{regexp.MustCompile(`\$[0-9,]+`), 0.7, "Money amount in subject"},
	{regexp.MustCompile(`(?i)\b(?:suspended|locked|blocked)\b`), 0.8, "Account threat in subject"},
}

// HeaderScanner checks for missing headers and suspicious subject lines.
type HeaderScanner struct{}

func (HeaderScanner) Name() string { return "header" }

func (HeaderScanner) Scan(meta *parser.Email, body string) ([]engine.Indicator, bool) {
	return guard(func() []engine.Indicator {
		var indicators []engine.Indicator

		if meta.MessageID == "" {
			indicators = append(indicators, engine.Indicator{
				Kind:       engine.KindHeader,
				Value:      "Missing Message-ID",
				Reason:     "Missing Message-ID header (unusual for legitimate emails)",
				Confidence: 0.4,
				Location:   "headers",
			})
		}

		if meta.Subject != "" {
			for _, sp := range suspiciousSubjectPatterns {
				if sp.Pattern.MatchString(meta.Subject) {
					indicators = append(indicators, engine.Indicator{
						Kind:       engine.KindHeader,
						Value:      meta.Subject,
						Reason:     sp.Reason,
						Confidence: sp.Confidence,
						Location:   "subject",
					})
				}
			}
		}

		return indicators
	})
}
