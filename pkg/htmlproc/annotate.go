package htmlproc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const highlightCSS = `
.phishing-highlight-critical { background-color: #ff6b6b; border: 2px solid #e74c3c; padding: 2px; border-radius: 3px; }
.phishing-highlight-high { background-color: #ffa726; border: 1px solid #ff9800; padding: 1px; border-radius: 2px; }
.phishing-highlight-medium { background-color: #ffeb3b; border: 1px solid #fbc02d; padding: 1px; border-radius: 2px; }
.phishing-tooltip { position: relative; cursor: help; }
`

// Annotate wraps every occurrence of the given spans in the HTML body with a
// highlight element carrying the reason as a data attribute. The original
// content is returned unchanged when the markup will not parse.
func Annotate(htmlContent string, spans []Span) string {
	if len(spans) == 0 {
		return htmlContent
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	injectStyle(doc)

	for _, sp := range spans {
		if sp.Value == "" {
			continue
		}
		tagAnchors(doc, sp)
		highlightText(doc, sp)
	}

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return htmlContent
	}
	return sb.String()
}

func highlightClass(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "phishing-highlight-critical"
	case confidence >= 0.6:
		return "phishing-highlight-high"
	default:
		return "phishing-highlight-medium"
	}
}

func injectStyle(doc *html.Node) {
	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: highlightCSS})

	if head := findElement(doc, atom.Head); head != nil {
		head.AppendChild(style)
		return
	}
	if body := findElement(doc, atom.Body); body != nil {
		body.InsertBefore(style, body.FirstChild)
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// tagAnchors marks anchor elements whose href contains the span value.
func tagAnchors(n *html.Node, sp Span) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		if strings.Contains(attrValue(n, "href"), sp.Value) {
			appendClass(n, highlightClass(sp.Confidence)+" phishing-tooltip")
			setAttr(n, "data-reason", sp.Label+": "+sp.Reason)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		tagAnchors(c, sp)
	}
}

// highlightText splits text nodes around case-insensitive matches of the
// span value and wraps each match in a highlight element.
func highlightText(n *html.Node, sp Span) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Meta:
			return
		}
	}

	var c *html.Node
	for c = n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			replaceMatches(n, c, sp)
		} else {
			highlightText(c, sp)
		}
		c = next
	}
}

func replaceMatches(parent, textNode *html.Node, sp Span) {
	start, end := foldIndex(textNode.Data, sp.Value)
	if start < 0 {
		return
	}

	rest := textNode.Data
	var nodes []*html.Node
	for start >= 0 {
		if start > 0 {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: rest[:start]})
		}

		span := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
		setAttr(span, "class", highlightClass(sp.Confidence)+" phishing-tooltip")
		setAttr(span, "data-reason", sp.Label+": "+sp.Reason)
		span.AppendChild(&html.Node{Type: html.TextNode, Data: rest[start:end]})
		nodes = append(nodes, span)

		rest = rest[end:]
		start, end = foldIndex(rest, sp.Value)
	}
	if rest != "" {
		nodes = append(nodes, &html.Node{Type: html.TextNode, Data: rest})
	}

	for _, node := range nodes {
		parent.InsertBefore(node, textNode)
	}
	parent.RemoveChild(textNode)
}

// foldIndex locates the first case-insensitive occurrence of needle in s and
// returns its byte offsets within s. Case folding can change the byte length
// of a string (Kelvin sign folds to "k"), so offsets into a folded copy do
// not transfer back; the scan stays on s itself, comparing rune windows with
// strings.EqualFold.
func foldIndex(s, needle string) (start, end int) {
	runes := utf8.RuneCountInString(needle)
	if runes == 0 {
		return -1, -1
	}
	for i := 0; i < len(s); {
		if n, ok := runePrefixLen(s[i:], runes); ok && strings.EqualFold(s[i:i+n], needle) {
			return i, i + n
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1, -1
}

// runePrefixLen returns the byte length of the first n runes of s.
func runePrefixLen(s string, n int) (int, bool) {
	i := 0
	for ; n > 0; n-- {
		if i >= len(s) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i, true
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func appendClass(n *html.Node, class string) {
	for i := range n.Attr {
		if n.Attr[i].Key == "class" {
			n.Attr[i].Val += " " + class
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}
