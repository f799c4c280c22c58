package parser

import (
	"sort"
	"strings"
	"testing"
)

const simpleEmail = "From: \"Chase Alerts\" <alerts@chase.com>\r\n" +
	"Reply-To: support@chase.com\r\n" +
	"Subject: Statement ready\r\n" +
	"Message-ID: <msg123@mail.chase.com>\r\n" +
	"Received-SPF: pass (google.com: domain designates sender)\r\n" +
	"Authentication-Results: mx.google.com; dkim=pass; dmarc=pass\r\n" +
	"Date: Mon, 03 Mar 2025 10:15:00 +0000\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Your statement is ready at https://chase.com/statements\r\n"

func TestParseSimpleEmail(t *testing.T) {
	meta, htmlBody, textBody := Parse(simpleEmail)

	if meta.Sender != "alerts@chase.com" {
		t.Errorf("sender = %q", meta.Sender)
	}
	if meta.ReplyTo != "support@chase.com" {
		t.Errorf("reply-to = %q", meta.ReplyTo)
	}
	if meta.Subject != "Statement ready" {
		t.Errorf("subject = %q", meta.Subject)
	}
	if meta.MessageID != "<msg123@mail.chase.com>" {
		t.Errorf("message-id = %q", meta.MessageID)
	}
	if !strings.Contains(meta.ReceivedSPF, "pass") {
		t.Errorf("received-spf = %q", meta.ReceivedSPF)
	}
	if meta.Date == nil {
		t.Errorf("date not parsed")
	}
	if htmlBody != "" {
		t.Errorf("unexpected html body: %q", htmlBody)
	}
	if !strings.Contains(textBody, "Your statement is ready") {
		t.Errorf("text body = %q", textBody)
	}
	if len(meta.Links) != 1 || meta.Links[0] != "https://chase.com/statements" {
		t.Errorf("links = %v", meta.Links)
	}
}

func TestParseMultipartWithAttachment(t *testing.T) {
	raw := "From: billing@example.com\r\n" +
		"Subject: Invoice\r\n" +
		"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"See attached invoice.\r\n" +
		"--outer\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<html><body><a href=\"http://pay.example.com/now\">Pay now</a></body></html>\r\n" +
		"--outer\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Disposition: attachment; filename=\"invoice.exe\"\r\n" +
		"\r\n" +
		"MZbinary\r\n" +
		"--outer--\r\n"

	meta, htmlBody, textBody := Parse(raw)

	if !strings.Contains(textBody, "See attached invoice") {
		t.Errorf("text body = %q", textBody)
	}
	if !strings.Contains(htmlBody, "Pay now") {
		t.Errorf("html body = %q", htmlBody)
	}
	if len(meta.Attachments) != 1 || meta.Attachments[0] != "invoice.exe" {
		t.Errorf("attachments = %v", meta.Attachments)
	}

	found := false
	for _, l := range meta.Links {
		if l == "http://pay.example.com/now" {
			found = true
		}
	}
	if !found {
		t.Errorf("html link missing: %v", meta.Links)
	}
}

func TestParseLinksDeduplicated(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Visit http://one.example.com/x and again http://one.example.com/x plus http://two.example.com/y\r\n"

	meta, _, _ := Parse(raw)
	sort.Strings(meta.Links)

	if len(meta.Links) != 2 {
		t.Errorf("links = %v, want 2 unique", meta.Links)
	}
}

func TestParseFallbackNeverFails(t *testing.T) {
	// Not a valid RFC 5322 message at all.
	raw := "garbage without structure\nfrom: spoofed@evil.example\nsubject: Hi there\nvisit http://evil.example/login"

	meta, htmlBody, textBody := Parse(raw)

	if meta == nil {
		t.Fatalf("fallback returned nil metadata")
	}
	if meta.Sender != "spoofed@evil.example" {
		t.Errorf("fallback sender = %q", meta.Sender)
	}
	if meta.Subject != "Hi there" {
		t.Errorf("fallback subject = %q", meta.Subject)
	}
	if htmlBody != "" || textBody == "" {
		t.Errorf("fallback bodies = %q/%q", htmlBody, textBody)
	}
	if len(meta.Links) == 0 {
		t.Errorf("fallback links missing")
	}
}

func TestParseQuotedPrintableBody(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Caf=C3=A9 statement ready\r\n"

	_, _, textBody := Parse(raw)
	if !strings.Contains(textBody, "Café") {
		t.Errorf("quoted-printable not decoded: %q", textBody)
	}
}

func TestBodyForAnalysisPrefersHTML(t *testing.T) {
	html := "<html><body><p>Hello <b>world</b></p></body></html>"

	got := BodyForAnalysis(html, "plain fallback")
	if !strings.Contains(got, "Hello") || strings.Contains(got, "<b>") {
		t.Errorf("BodyForAnalysis = %q", got)
	}

	if got := BodyForAnalysis("", "plain fallback"); got != "plain fallback" {
		t.Errorf("plain fallback = %q", got)
	}
}

func TestExtractAddressFallbackRegex(t *testing.T) {
	// Malformed display name still yields the embedded address.
	if got := extractAddress("Totally Broken <<alerts@chase.com>"); got != "alerts@chase.com" {
		t.Errorf("extractAddress = %q", got)
	}
	if got := extractAddress(""); got != "" {
		t.Errorf("empty input = %q", got)
	}
}
