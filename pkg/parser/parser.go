package parser

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/user/phishguard/pkg/htmlproc"
)

// Email is the normalized record handed to the analysis pipeline: headers
// relevant to authentication plus the deduplicated link and attachment lists.
type Email struct {
	Sender      string     `json:"sender,omitempty"`
	ReplyTo     string     `json:"reply_to,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Date        *time.Time `json:"received_date,omitempty"`
	MessageID   string     `json:"message_id,omitempty"`
	ReturnPath  string     `json:"return_path,omitempty"`
	ReceivedSPF string     `json:"received_spf,omitempty"`
	AuthResults string     `json:"authentication_results,omitempty"`
	Links       []string   `json:"links"`
	Attachments []string   `json:"attachments"`
}

var addressPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Parse extracts metadata and body content from a raw RFC 5322 message.
// It never fails: when the message will not parse as mail, a line-oriented
// fallback recovers whatever headers it can and the raw input becomes the
// text body.
func Parse(raw string) (*Email, string, string) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return fallbackParse(raw), "", raw
	}

	meta := &Email{
		Sender:      extractAddress(msg.Header.Get("From")),
		ReplyTo:     extractAddress(msg.Header.Get("Reply-To")),
		Subject:     decodeHeader(msg.Header.Get("Subject")),
		MessageID:   msg.Header.Get("Message-ID"),
		ReturnPath:  msg.Header.Get("Return-Path"),
		ReceivedSPF: msg.Header.Get("Received-SPF"),
		AuthResults: msg.Header.Get("Authentication-Results"),
	}
	if d, err := msg.Header.Date(); err == nil {
		meta.Date = &d
	}

	htmlBody, textBody := extractBodies(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, meta)

	links := make(map[string]bool)
	if htmlBody != "" {
		_, htmlLinks := htmlproc.ExtractTextAndLinks(htmlBody)
		for _, l := range htmlLinks {
			links[l] = true
		}
	}
	if textBody != "" {
		for _, l := range htmlproc.ExtractURLs(textBody) {
			links[l] = true
		}
	}
	meta.Links = make([]string, 0, len(links))
	for l := range links {
		meta.Links = append(meta.Links, l)
	}

	return meta, htmlBody, textBody
}

// BodyForAnalysis picks the best plain-text rendition of the message body.
func BodyForAnalysis(htmlBody, textBody string) string {
	if htmlBody != "" {
		return htmlproc.CleanText(htmlBody)
	}
	return textBody
}

func extractAddress(headerValue string) string {
	if headerValue == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(headerValue); err == nil {
		return strings.ToLower(addr.Address)
	}
	if m := addressPattern.FindString(headerValue); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

func decodeHeader(value string) string {
	dec := new(mime.WordDecoder)
	if decoded, err := dec.DecodeHeader(value); err == nil {
		return decoded
	}
	return value
}

// extractBodies walks the message structure, collecting the first HTML and
// plain-text parts and recording attachment filenames on meta.
func extractBodies(contentType, transferEncoding string, body io.Reader, meta *Email) (string, string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", readDecoded(body, transferEncoding)
		}
		return walkMultipart(multipart.NewReader(body, boundary), meta)
	}

	content := readDecoded(body, transferEncoding)
	switch {
	case mediaType == "text/html":
		return content, ""
	case mediaType == "text/plain":
		return "", content
	case strings.Contains(strings.ToLower(content), "<html"),
		strings.Contains(strings.ToLower(content), "<body"):
		return content, ""
	default:
		return "", content
	}
}

func walkMultipart(mr *multipart.Reader, meta *Email) (string, string) {
	var htmlBody, textBody string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		disposition := part.Header.Get("Content-Disposition")
		if strings.Contains(disposition, "attachment") {
			name := part.FileName()
			if name == "" {
				name = "unnamed_attachment"
			}
			meta.Attachments = append(meta.Attachments, decodeHeader(name))
			continue
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		encoding := part.Header.Get("Content-Transfer-Encoding")

		switch {
		case strings.HasPrefix(partType, "multipart/"):
			if b := partParams["boundary"]; b != "" {
				h, t := walkMultipart(multipart.NewReader(part, b), meta)
				if htmlBody == "" {
					htmlBody = h
				}
				if textBody == "" {
					textBody = t
				}
			}
		case partType == "text/html":
			if htmlBody == "" {
				htmlBody = readDecoded(part, encoding)
			}
		case partType == "text/plain":
			if textBody == "" {
				textBody = readDecoded(part, encoding)
			}
		}
	}

	return htmlBody, textBody
}

func readDecoded(r io.Reader, transferEncoding string) string {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}
	data, err := io.ReadAll(r)
	if err != nil && len(data) == 0 {
		return ""
	}
	return string(data)
}

// fallbackParse recovers basic headers line by line when mail parsing fails.
func fallbackParse(raw string) *Email {
	meta := &Email{}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "from:"):
			meta.Sender = extractAddress(strings.TrimSpace(line[5:]))
		case strings.HasPrefix(lower, "reply-to:"):
			meta.ReplyTo = extractAddress(strings.TrimSpace(line[9:]))
		case strings.HasPrefix(lower, "subject:"):
			meta.Subject = strings.TrimSpace(line[8:])
		case strings.HasPrefix(lower, "message-id:"):
			meta.MessageID = strings.TrimSpace(line[11:])
		}
	}

	meta.Links = htmlproc.ExtractURLs(raw)
	return meta
}
