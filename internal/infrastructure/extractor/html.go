package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// NewHTMLSnapshot captures queries from static HTML. It serves the replay
// driver and fixtures saved from a browser with "Save page as".
func NewHTMLSnapshot(pageURL string, r io.Reader, queries []Query) (*Snapshot, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	compiled := make(map[string]cascadia.Selector)
	compile := func(selector string) (cascadia.Selector, error) {
		if sel, ok := compiled[selector]; ok {
			return sel, nil
		}
		sel, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
		}
		compiled[selector] = sel
		return sel, nil
	}

	snap := &Snapshot{PageURL: pageURL, Nodes: make(map[string][]Element, len(queries))}
	for _, q := range queries {
		sel, err := compile(q.Selector)
		if err != nil {
			return nil, err
		}

		matches := sel.MatchAll(root)
		elements := make([]Element, 0, len(matches))
		for _, n := range matches {
			el := newElement(n)
			for _, w := range q.Within {
				rel, err := compile(w)
				if err != nil {
					return nil, err
				}
				if el.Within == nil {
					el.Within = make(map[string][]Element, len(q.Within))
				}
				var sub []Element
				for _, m := range rel.MatchAll(n) {
					// querySelectorAll never returns the element itself
					if m != n {
						sub = append(sub, newElement(m))
					}
				}
				el.Within[w] = sub
			}
			elements = append(elements, el)
		}
		snap.Nodes[q.Selector] = elements
	}
	return snap, nil
}

func newElement(n *html.Node) Element {
	el := Element{Text: nodeText(n)}
	if len(n.Attr) > 0 {
		el.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			el.Attrs[a.Key] = a.Val
		}
	}
	return el
}

// nodeText concatenates the text below n with whitespace collapsed, roughly
// what innerText returns in a browser
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
