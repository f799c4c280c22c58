package scanners

import (
	"testing"

	"github.com/user/phishguard/pkg/parser"
)

func TestHeaderScannerMissingMessageID(t *testing.T) {
	indicators, ok := HeaderScanner{}.Scan(&parser.Email{Subject: "Quarterly report"}, "")
	if !ok {
		t.Fatalf("scan failed")
	}
	if len(indicators) != 1 {
		t.Fatalf("got %d indicators, want 1", len(indicators))
	}
	if indicators[0].Confidence != 0.4 || indicators[0].Location != "headers" {
		t.Errorf("indicator = %+v", indicators[0])
	}
}

func TestHeaderScannerSuspiciousSubject(t *testing.T) {
	meta := &parser.Email{
		MessageID: "<abc@mail.example.com>",
		Subject:   "URGENT!!! Your account has been suspended",
	}

	indicators, _ := HeaderScanner{}.Scan(meta, "")

	reasons := map[string]bool{}
	for _, ind := range indicators {
		reasons[ind.Reason] = true
	}
	for _, want := range []string{"Urgent subject line", "Excessive exclamation marks", "Account threat in subject"} {
		if !reasons[want] {
			t.Errorf("missing %q in %v", want, reasons)
		}
	}
}

func TestHeaderScannerEmptyForward(t *testing.T) {
	meta := &parser.Email{MessageID: "<abc@mail.example.com>", Subject: "FW: "}

	indicators, _ := HeaderScanner{}.Scan(meta, "")
	if len(indicators) != 1 || indicators[0].Reason != "Empty reply/forward subject" {
		t.Errorf("indicators = %+v", indicators)
	}
}

func TestHeaderScannerCleanHeaders(t *testing.T) {
	meta := &parser.Email{MessageID: "<abc@mail.example.com>", Subject: "Team offsite agenda"}

	indicators, ok := HeaderScanner{}.Scan(meta, "")
	if !ok {
		t.Fatalf("scan failed")
	}
	if len(indicators) != 0 {
		t.Errorf("clean headers flagged: %+v", indicators)
	}
}

func TestDefaultScannerSet(t *testing.T) {
	set := Default()
	if len(set) != 5 {
		t.Fatalf("got %d scanners, want 5", len(set))
	}
	names := map[string]bool{}
	for _, s := range set {
		names[s.Name()] = true
	}
	for _, want := range []string{"url", "attachment", "address", "content", "header"} {
		if !names[want] {
			t.Errorf("missing scanner %q", want)
		}
	}
}
