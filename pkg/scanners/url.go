package scanners

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/parser"
)

// Suspicious TLDs commonly used in phishing campaigns.
var suspiciousTLDs = []string{
	".tk", ".ml", ".ga", ".cf", ".top", ".click", ".download", ".stream",
	".science", ".racing", ".review", ".date", ".faith", ".cricket",
}

// Banking and financial domains treated as legitimate regardless of other
// signals.
var legitimateDomains = []string{
	"chase.com", "bankofamerica.com", "wellsfargo.com", "citi.com",
	"usbank.com", "pnc.com", "capitalone.com", "td.com", "regions.com",
	"suntrust.com", "ally.com", "americanexpress.com", "discover.com",
	"paypal.com", "venmo.com", "zelle.com",
}

var suspiciousURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`),     // IP-literal hosts
	regexp.MustCompile(`(?i)bit\.ly|tinyurl|short|url\.org|goo\.gl|t\.co`),   // URL shorteners
	regexp.MustCompile(`(?i)[a-z0-9]+-[a-z0-9]+-[a-z0-9]+\.[a-z]{2,}`),       // hyphen-heavy domains
	regexp.MustCompile(`(?i)[0-9]{4,}\.[a-z]{2,}`),                           // numeric domains
	regexp.MustCompile(`(?i)[a-z]+[0-9]+[a-z]+\.[a-z]{2,}`),                  // mixed alphanumeric
	regexp.MustCompile(`(?i)secure[^a-z]|verify[^a-z]|update[^a-z]|confirm[^a-z]`), // phishing keywords
}

var suspiciousPathKeywords = regexp.MustCompile(`login|signin|verify|update|confirm|secure`)

// Cyrillic characters that render like Latin ones, used in homograph attacks.
var homographChars = []rune{'а', 'е', 'о', 'р', 'с', 'х', 'у'}

// AnalyzeURL scores a single URL for phishing indicators. Confidence values
// accumulate additively per signal and are capped at 1.0; a URL counts as
// suspicious above 0.3. Allow-listed banking domains short-circuit to
// not-suspicious.
func AnalyzeURL(rawURL string) (bool, float64, []string) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return true, 0.9, []string{"Invalid URL format"}
	}

	domain := strings.ToLower(parsed.Hostname())
	path := strings.ToLower(parsed.Path)
	var reasons []string
	confidence := 0.0

	for _, legit := range legitimateDomains {
		if domain == legit || strings.HasSuffix(domain, "."+legit) {
			return false, 0.1, []string{"Legitimate domain"}
		}
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			confidence += 0.3
			reasons = append(reasons, "Suspicious TLD: "+tld)
		}
	}

	for _, p := range suspiciousURLPatterns {
		if p.MatchString(rawURL) {
			confidence += 0.25
			reasons = append(reasons, "Suspicious pattern detected")
		}
	}

	if hasHomographChars(domain) {
		confidence += 0.4
		reasons = append(reasons, "Potential homograph attack")
	}

	if len(rawURL) > 150 {
		confidence += 0.2
		reasons = append(reasons, "Unusually long URL")
	}

	if dots := strings.Count(domain, "."); dots > 3 {
		confidence += 0.3
		reasons = append(reasons, "Excessive subdomains")
	}

	if suspiciousPathKeywords.MatchString(path) {
		confidence += 0.2
		reasons = append(reasons, "Suspicious path keywords")
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence > 0.3, confidence, reasons
}

func hasHomographChars(domain string) bool {
	for _, r := range domain {
		for _, h := range homographChars {
			if r == h {
				return true
			}
		}
	}
	return false
}

// URLScanner flags suspicious links extracted from the message body.
type URLScanner struct{}

func (URLScanner) Name() string { return "url" }

func (URLScanner) Scan(meta *parser.Email, body string) ([]engine.Indicator, bool) {
	return guard(func() []engine.Indicator {
		var indicators []engine.Indicator
		for _, link := range meta.Links {
			suspicious, confidence, reasons := AnalyzeURL(link)
			if !suspicious {
				continue
			}
			indicators = append(indicators, engine.Indicator{
				Kind:       engine.KindURL,
				Value:      link,
				Reason:     strings.Join(reasons, "; "),
				Confidence: confidence,
				Location:   "email_body",
			})
		}
		return indicators
	})
}
