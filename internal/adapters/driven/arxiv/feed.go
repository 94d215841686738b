package arxiv

import (
	"strings"
	"time"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// atomFeed mirrors the subset of the arXiv Atom response we read.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Primary   atomCategory `xml:"primary_category"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// document converts an Atom entry into a domain record. The abstract
// becomes the retrievable text.
func (e atomEntry) document() domain.Document {
	doc := domain.Document{
		ID:       idFromEntryID(e.ID),
		Title:    collapseWhitespace(e.Title),
		Category: e.Primary.Term,
		Text:     strings.TrimSpace(e.Summary),
	}

	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			doc.Authors = append(doc.Authors, name)
		}
	}

	if ts, err := time.Parse(time.RFC3339, e.Published); err == nil {
		doc.Published = ts.UTC()
	}

	doc.SourceURL = e.pdfURL()
	if doc.SourceURL == "" {
		doc.SourceURL = e.ID
	}

	return doc
}

// pdfURL returns the entry's PDF link, if present.
func (e atomEntry) pdfURL() string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

// idFromEntryID extracts the arXiv id from an entry id URL such as
// "http://arxiv.org/abs/2401.12345v1".
func idFromEntryID(entryID string) string {
	if i := strings.LastIndex(entryID, "/abs/"); i >= 0 {
		return entryID[i+len("/abs/"):]
	}
	return strings.TrimSpace(entryID)
}

// collapseWhitespace joins feed text wrapped across lines back into a
// single line.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
