package scanners

import (
	"regexp"
	"strings"
)

var numericRun = regexp.MustCompile(`[0-9]{4,}`)

// SenderReputation estimates the reputation of the sender's domain in [0,1].
// The second return is false when no domain can be extracted.
func SenderReputation(sender string) (float64, bool) {
	domain := addressDomain(sender)
	if domain == "" {
		return 0, false
	}

	score := 0.5

	for _, legit := range legitimateDomains {
		if domain == legit {
			score = 0.9
			break
		}
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(domain, tld) {
			score -= 0.3
			break
		}
	}

	if numericRun.MatchString(domain) {
		score -= 0.2
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}
