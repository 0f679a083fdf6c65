// Package extractor reads raw product records from source pages.
//
// Extraction is split in two: a driver captures a Snapshot of every selector
// the Strategy asks for, then the Strategy turns the snapshot into records
// without touching the page again. Drivers:
//   - ChromedpExtractor: a live headless browser tab
//   - ReplayExtractor: canned snapshots or static HTML keyed by page URL
package extractor

import "strings"

// Element is a captured DOM node
type Element struct {
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs,omitempty"`
	// Within holds the matches of relative selectors evaluated inside this node
	Within map[string][]Element `json:"within,omitempty"`
}

// Attr returns an attribute value or ""
func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

// Value is the visible text, falling back to the content attribute used by
// meta tags
func (e Element) Value() string {
	if text := strings.TrimSpace(e.Text); text != "" {
		return text
	}
	return strings.TrimSpace(e.Attr("content"))
}

// Query returns the matches of a relative selector captured for this node
func (e Element) Query(selector string) []Element {
	return e.Within[selector]
}

// Document is a read-only view of a page
type Document interface {
	URL() string
	Query(selector string) []Element
}

// Query asks for every element matching Selector. For each match, the
// elements matching the Within selectors relative to it are captured too.
type Query struct {
	Selector string   `json:"selector"`
	Within   []string `json:"within,omitempty"`
}

// Snapshot is a serializable Document
type Snapshot struct {
	PageURL string               `json:"url"`
	Nodes   map[string][]Element `json:"nodes"`
}

var _ Document = (*Snapshot)(nil)

// URL returns the page URL
func (s *Snapshot) URL() string {
	return s.PageURL
}

// Query returns the captured matches of selector, nil when the selector was
// not captured or matched nothing
func (s *Snapshot) Query(selector string) []Element {
	return s.Nodes[selector]
}
