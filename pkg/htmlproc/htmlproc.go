package htmlproc

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Span is one piece of content to highlight inside an HTML body. Callers map
// their indicator model onto this shape; htmlproc stays presentation-only.
type Span struct {
	Label      string // e.g. "Suspicious URL"
	Value      string
	Reason     string
	Confidence float64
}

var (
	urlPattern    = regexp.MustCompile(`https?://[A-Za-z0-9$\-_@.&+!*(),%/?=#~:;]+`)
	domainPattern = regexp.MustCompile(`(?m)(?:^|[\s,;])((?:[a-zA-Z0-9][a-zA-Z0-9-]*\.)+[a-zA-Z]{2,}(?:[/?][^\s]*)?)`)
)

// ExtractURLs pulls URLs out of plain text. Bare domains are normalized to
// http:// form so the URL analyzer can treat them uniformly.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string

	for _, u := range urlPattern.FindAllString(text, -1) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, m := range domainPattern.FindAllStringSubmatch(text, -1) {
		d := strings.TrimSpace(m[1])
		if d == "" || strings.HasPrefix(d, "http") {
			continue
		}
		u := "http://" + d
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	sort.Strings(urls)
	return urls
}

// ExtractTextAndLinks parses an HTML body and returns its visible text plus
// every link target found in anchors, images, iframes, embeds and the text
// itself. Falls back to regex extraction when the markup will not parse.
func ExtractTextAndLinks(htmlContent string) (string, []string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent, ExtractURLs(htmlContent)
	}

	var links []string
	seen := make(map[string]bool)
	addLink := func(href string) {
		if href == "" || strings.HasPrefix(href, "#") || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.A:
				addLink(attrValue(n, "href"))
			case atom.Img, atom.Iframe, atom.Embed:
				addLink(attrValue(n, "src"))
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := collapseWhitespace(sb.String())
	for _, u := range ExtractURLs(text) {
		addLink(u)
	}
	return text, links
}

// CleanText converts an HTML body into whitespace-normalized plain text.
func CleanText(htmlContent string) string {
	text, _ := ExtractTextAndLinks(htmlContent)
	return text
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
