package scanners

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/parser"
)

var freeProviders = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"aol.com":     true,
}

var randomLocalPart = regexp.MustCompile(`^[a-z0-9]{15,}$`)

// AnalyzeAddress scores an email address for phishing indicators. The domain
// is re-analyzed through the URL analyzer so both share one notion of a
// suspicious domain.
func AnalyzeAddress(address string) (bool, float64, []string) {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return true, 0.9, []string{"Invalid email format"}
	}

	normalized := strings.ToLower(parsed.Address)
	at := strings.LastIndex(normalized, "@")
	if at < 0 {
		return true, 0.8, []string{"Cannot extract domain"}
	}
	localPart, domain := normalized[:at], normalized[at+1:]

	var reasons []string
	confidence := 0.0

	if len(localPart) > 20 || randomLocalPart.MatchString(localPart) {
		confidence += 0.3
		reasons = append(reasons, "Suspicious local part pattern")
	}

	domainSuspicious, domainConfidence, domainReasons := AnalyzeURL("http://" + domain)
	if domainSuspicious {
		confidence += domainConfidence * 0.8
		for _, r := range domainReasons {
			reasons = append(reasons, "Domain: "+r)
		}
	}

	if freeProviders[domain] {
		confidence += 0.1
		reasons = append(reasons, "Free email provider")
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence > 0.3, confidence, reasons
}

func addressDomain(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 {
		return strings.ToLower(address[at+1:])
	}
	return ""
}

// AddressScanner inspects the sender and reply-to addresses, including the
// sender/reply-to domain mismatch check.
type AddressScanner struct{}

func (AddressScanner) Name() string { return "address" }

func (AddressScanner) Scan(meta *parser.Email, body string) ([]engine.Indicator, bool) {
	return guard(func() []engine.Indicator {
		var indicators []engine.Indicator

		if meta.Sender != "" {
			if suspicious, confidence, reasons := AnalyzeAddress(meta.Sender); suspicious {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindEmail,
					Value:      meta.Sender,
					Reason:     strings.Join(reasons, "; "),
					Confidence: confidence,
					Location:   "sender",
				})
			}
		}

		if meta.ReplyTo != "" && meta.ReplyTo != meta.Sender {
			if suspicious, confidence, reasons := AnalyzeAddress(meta.ReplyTo); suspicious {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindEmail,
					Value:      meta.ReplyTo,
					Reason:     strings.Join(reasons, "; "),
					Confidence: confidence,
					Location:   "reply_to",
				})
			}

			senderDomain := addressDomain(meta.Sender)
			replyDomain := addressDomain(meta.ReplyTo)
			if senderDomain != "" && replyDomain != "" && senderDomain != replyDomain {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindEmail,
					Value:      fmt.Sprintf("Sender: %s, Reply-to: %s", meta.Sender, meta.ReplyTo),
					Reason:     "Sender and reply-to domains differ",
					Confidence: 0.6,
					Location:   "headers",
				})
			}
		}

		return indicators
	})
}
