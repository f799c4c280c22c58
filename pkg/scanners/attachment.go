package scanners

import (
	"regexp"
	"strings"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/parser"
)

// Dangerous extensions with per-extension confidence. Ordered so the first
// matching suffix wins.
var dangerousExtensions = []struct {
	Ext        string
	Confidence float64
}{
	{".exe", 0.9},
	{".scr", 0.9},
	{".bat", 0.8},
	{".cmd", 0.8},
	{".com", 0.8},
	{".pif", 0.9},
	{".jar", 0.7},
	{".js", 0.6},
	{".vbs", 0.8},
	{".ps1", 0.7},
	{".zip", 0.4},
	{".rar", 0.4},
	{".7z", 0.4},
}

var doubleExtension = regexp.MustCompile(`\.[a-z]{2,4}\.[a-z]{2,4}$`)

// AttachmentScanner flags dangerous file types, double extensions and
// obfuscated filenames.
type AttachmentScanner struct{}

func (AttachmentScanner) Name() string { return "attachment" }

func (AttachmentScanner) Scan(meta *parser.Email, body string) ([]engine.Indicator, bool) {
	return guard(func() []engine.Indicator {
		var indicators []engine.Indicator

		for _, attachment := range meta.Attachments {
			lower := strings.ToLower(attachment)

			for _, entry := range dangerousExtensions {
				if strings.HasSuffix(lower, entry.Ext) {
					indicators = append(indicators, engine.Indicator{
						Kind:       engine.KindAttachment,
						Value:      attachment,
						Reason:     "Potentially dangerous file type: " + entry.Ext,
						Confidence: entry.Confidence,
						Location:   "attachment",
					})
					break
				}
			}

			if doubleExtension.MatchString(lower) {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindAttachment,
					Value:      attachment,
					Reason:     "Suspicious double extension",
					Confidence: 0.7,
					Location:   "attachment",
				})
			}

			if len(attachment) > 100 {
				indicators = append(indicators, engine.Indicator{
					Kind:       engine.KindAttachment,
					Value:      attachment[:50] + "...",
					Reason:     "Unusually long filename (potential obfuscation)",
					Confidence: 0.5,
					Location:   "attachment",
				})
			}
		}

		return indicators
	})
}
