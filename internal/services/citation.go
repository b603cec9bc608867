package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/localnerve/aris-backend/internal/models"
)

// Citation is the public metadata of a published document
type Citation struct {
	Title       string     `json:"title"`
	Authors     []string   `json:"authors"`
	Abstract    string     `json:"abstract"`
	Keywords    []string   `json:"keywords"`
	DOI         string     `json:"doi,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Permalink   string     `json:"permalink,omitempty"`
	PublicUUID  string     `json:"public_uuid,omitempty"`
}

// NewCitation builds the citation metadata for doc. doc.Owner must be loaded for
// the author list to be populated.
func NewCitation(doc *models.Document) *Citation {
	c := &Citation{
		Title:       ExtractTitle(doc),
		Authors:     []string{},
		Abstract:    doc.Abstract,
		Keywords:    SplitKeywords(doc.Keywords),
		PublishedAt: doc.PublishedAt,
	}
	if doc.Owner != nil && doc.Owner.Name != "" {
		c.Authors = append(c.Authors, doc.Owner.Name)
	}
	if doc.DOI != nil {
		c.DOI = *doc.DOI
	}
	if doc.PermalinkSlug != nil {
		c.Permalink = *doc.PermalinkSlug
	}
	if doc.PublicUUID != nil {
		c.PublicUUID = *doc.PublicUUID
	}
	return c
}

// BibTeX renders the citation as a BibTeX @article entry
func (c *Citation) BibTeX() string {
	var b strings.Builder

	fmt.Fprintf(&b, "@article{%s,\n", c.key())
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s = {%s},\n", name, bibEscape(value))
		}
	}

	field("title", c.Title)
	field("author", strings.Join(c.Authors, " and "))
	if c.PublishedAt != nil {
		field("year", fmt.Sprintf("%d", c.PublishedAt.Year()))
		field("month", strings.ToLower(c.PublishedAt.Month().String()[:3]))
	}
	field("abstract", c.Abstract)
	field("keywords", strings.Join(c.Keywords, ", "))
	field("doi", c.DOI)

	b.WriteString("}\n")
	return b.String()
}

// key builds a citation key from the first author's surname and the year
func (c *Citation) key() string {
	var b strings.Builder
	if len(c.Authors) > 0 {
		fields := strings.Fields(c.Authors[0])
		if len(fields) > 0 {
			for _, r := range fields[len(fields)-1] {
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					b.WriteRune(unicode.ToLower(r))
				}
			}
		}
	}
	if b.Len() == 0 {
		b.WriteString("aris")
	}
	if c.PublishedAt != nil {
		fmt.Fprintf(&b, "%d", c.PublishedAt.Year())
	}
	if c.PublicUUID != "" {
		b.WriteString(":")
		b.WriteString(c.PublicUUID[:min(8, len(c.PublicUUID))])
	}
	return b.String()
}

var bibReplacer = strings.NewReplacer(`\`, `\textbackslash{}`, "{", `\{`, "}", `\}`, "&", `\&`, "%", `\%`, "$", `\$`, "#", `\#`, "_", `\_`)

func bibEscape(s string) string {
	return bibReplacer.Replace(s)
}
