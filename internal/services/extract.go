package services

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/localnerve/aris-backend/internal/models"
	"golang.org/x/net/html"
)

// RSMMarker opens every RSM manuscript
const RSMMarker = ":rsm:"

// SectionNode is a located section of rendered output
type SectionNode struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// HasRSMMarker reports whether source opens with the manuscript marker.
// Leading whitespace is ignored.
func HasRSMMarker(source string) bool {
	return strings.HasPrefix(strings.TrimLeft(source, " \t\r\n"), RSMMarker)
}

// ParseRSMTitle infers a manuscript title from RSM source: the first line after
// the marker that is a "# " heading. Returns "" when there is none.
func ParseRSMTitle(source string) string {
	trimmed := strings.TrimLeft(source, " \t\r\n")
	if !strings.HasPrefix(trimmed, RSMMarker) {
		return ""
	}

	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(trimmed, RSMMarker)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "# "), "::"))
		}
	}
	return ""
}

// ExtractTitle returns the explicit title verbatim when set, otherwise the title
// parsed from the source. A nil document yields "".
func ExtractTitle(doc *models.Document) string {
	if doc == nil {
		return ""
	}
	if doc.Title != "" {
		return doc.Title
	}
	return ParseRSMTitle(doc.Source)
}

// ExtractSection finds the section called name in rendered HTML. A <section> whose
// id or class matches wins over any other matching element.
func ExtractSection(rendered, name string) (*SectionNode, error) {
	if name == "" || rendered == "" {
		return nil, ErrNotFound
	}

	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil, err
	}

	var section, fallback *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if section != nil {
			return
		}
		if n.Type == html.ElementNode && matchesSection(n, name) {
			if n.Data == "section" {
				section = n
				return
			}
			if fallback == nil {
				fallback = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	found := section
	if found == nil {
		found = fallback
	}
	if found == nil {
		return nil, ErrNotFound
	}

	return toSectionNode(found)
}

func matchesSection(n *html.Node, name string) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			if attr.Val == name {
				return true
			}
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				if class == name {
					return true
				}
			}
		}
	}
	return false
}

func toSectionNode(n *html.Node) (*SectionNode, error) {
	node := &SectionNode{Tag: n.Data}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			node.ID = attr.Val
		case "class":
			node.Classes = strings.Fields(attr.Val)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, err
	}
	node.HTML = buf.String()
	node.Text = strings.Join(strings.Fields(textContent(n)), " ")

	return node, nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
