package extractor

import (
	"net/url"
	"slices"
	"strings"

	"github.com/dropship/backend/internal/domain/catalog"
	"github.com/dropship/backend/internal/domain/sourcing"
)

// DetailSet is one way of reading a single-product page. Name anchors the
// set: it is chosen when Name matches at least one element.
type DetailSet struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// ListingSet is one way of reading a page of product cards. Item anchors
// the set; the other selectors are evaluated inside each item.
type ListingSet struct {
	Item  string `json:"item"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Link  string `json:"link,omitempty"`
	Image string `json:"image,omitempty"`
}

// Strategy holds the ordered selector sets of one source platform
type Strategy struct {
	Platform    string
	DetailSets  []DetailSet
	ListingSets []ListingSet
	// ImageSets are tried in order; the matches of every selector in the
	// first set that matches anything are unioned
	ImageSets [][]string
	// ImageDomains accepts a hinted image when its host is one of these or a
	// subdomain. Empty means the page's own domain.
	ImageDomains []string
}

// DefaultStrategy returns the selector sets for AliExpress pages, followed
// by schema.org and Open Graph fallbacks any storefront may carry
func DefaultStrategy() *Strategy {
	return &Strategy{
		Platform: "aliexpress",
		DetailSets: []DetailSet{
			{
				Name:        `h1[data-pl="product-title"]`,
				Price:       `[class*="price--currentPriceText"], .product-price-current`,
				Description: `meta[name="description"]`,
			},
			{
				Name:        `.product-title-text`,
				Price:       `.product-price-value, .uniform-banner-box-price`,
				Description: `meta[name="description"]`,
			},
			{
				Name:        `[itemtype*="schema.org/Product"] [itemprop="name"]`,
				Price:       `[itemprop="price"]`,
				Description: `[itemprop="description"]`,
				Currency:    `[itemprop="priceCurrency"]`,
			},
			{
				Name:        `meta[property="og:title"]`,
				Price:       `meta[property="product:price:amount"], meta[property="og:price:amount"]`,
				Description: `meta[property="og:description"]`,
				Currency:    `meta[property="product:price:currency"], meta[property="og:price:currency"]`,
			},
		},
		ListingSets: []ListingSet{
			{
				Item:  `[class*="search-item-card-wrapper"]`,
				Name:  `h3, [class*="title--"]`,
				Price: `[class*="price-sale"]`,
				Link:  `a[href]`,
				Image: `img`,
			},
			{
				Item:  `[itemtype*="schema.org/Product"]`,
				Name:  `[itemprop="name"]`,
				Price: `[itemprop="price"]`,
				Link:  `a[href]`,
				Image: `img`,
			},
			{
				Item:  `.product-card`,
				Name:  `.product-title, h2, h3`,
				Price: `.price`,
				Link:  `a[href]`,
				Image: `img`,
			},
		},
		ImageSets: [][]string{
			{`[class*="slider--img"] img`, `.images-view-item img`},
			{`[itemprop="image"]`},
			{`meta[property="og:image"]`},
		},
		ImageDomains: []string{"aliexpress.com", "aliexpress.us", "alicdn.com"},
	}
}

// Queries lists every selector a driver must capture. Selectors shared by
// several sets are asked once, with their relative selectors merged.
func (s *Strategy) Queries() []Query {
	var (
		queries []Query
		index   = make(map[string]int)
	)
	add := func(selector string, within ...string) {
		if selector == "" {
			return
		}
		i, ok := index[selector]
		if !ok {
			i = len(queries)
			index[selector] = i
			queries = append(queries, Query{Selector: selector})
		}
		for _, w := range within {
			if w != "" && !slices.Contains(queries[i].Within, w) {
				queries[i].Within = append(queries[i].Within, w)
			}
		}
	}

	for _, d := range s.DetailSets {
		add(d.Name)
		add(d.Price)
		add(d.Description)
		add(d.Currency)
	}
	for _, l := range s.ListingSets {
		add(l.Item, l.Name, l.Price, l.Link, l.Image)
	}
	for _, set := range s.ImageSets {
		for _, selector := range set {
			add(selector)
		}
	}
	return queries
}

// Extract reads records from doc. Pages whose URL carries a product id are
// read as detail pages first, other pages as listings first; the other mode
// is tried when the preferred one matches nothing. Records with an empty
// name or a non-positive price are dropped.
func (s *Strategy) Extract(doc Document, hints sourcing.Hints) *sourcing.ExtractResult {
	pageURL := doc.URL()
	detailFirst := sourcing.SourceProductIDFromURL(pageURL) != ""

	modes := []sourcing.ExtractMode{sourcing.ExtractModeListing, sourcing.ExtractModeDetail}
	if detailFirst {
		modes = []sourcing.ExtractMode{sourcing.ExtractModeDetail, sourcing.ExtractModeListing}
	}

	for _, mode := range modes {
		var (
			products []sourcing.RawProduct
			matched  bool
		)
		if mode == sourcing.ExtractModeDetail {
			products, matched = s.extractDetail(doc, hints)
		} else {
			products, matched = s.extractListing(doc)
		}
		if matched {
			return &sourcing.ExtractResult{Mode: mode, PageURL: pageURL, Products: products}
		}
	}

	return &sourcing.ExtractResult{Mode: modes[0], PageURL: pageURL, Products: []sourcing.RawProduct{}}
}

func (s *Strategy) extractDetail(doc Document, hints sourcing.Hints) ([]sourcing.RawProduct, bool) {
	for _, set := range s.DetailSets {
		names := doc.Query(set.Name)
		if len(names) == 0 {
			continue
		}

		pageURL := doc.URL()
		raw := sourcing.RawProduct{
			Name:           firstValue(names),
			PriceText:      firstValue(doc.Query(set.Price)),
			Description:    firstValue(doc.Query(set.Description)),
			Currency:       strings.ToUpper(firstValue(doc.Query(set.Currency))),
			SourceURL:      canonicalURL(pageURL),
			SourcePlatform: s.Platform,
		}
		if selected := strings.TrimSpace(hints.SelectedText); selected != "" {
			raw.Name = selected
		}
		if raw.Currency == "" {
			raw.Currency = currencyFromText(raw.PriceText)
		}
		raw.Price, _ = sourcing.ParsePrice(raw.PriceText)
		raw.SourceProductID = sourcing.SourceProductIDFromURL(raw.SourceURL)
		raw.Images = s.images(doc, hints.ImageURL)

		if !raw.IsValid() {
			return []sourcing.RawProduct{}, true
		}
		return []sourcing.RawProduct{raw}, true
	}
	return nil, false
}

func (s *Strategy) extractListing(doc Document) ([]sourcing.RawProduct, bool) {
	base, _ := url.Parse(doc.URL())

	for _, set := range s.ListingSets {
		items := doc.Query(set.Item)
		if len(items) == 0 {
			continue
		}

		products := make([]sourcing.RawProduct, 0, len(items))
		seen := make(map[string]bool)
		for _, item := range items {
			link := item.Attr("href")
			if set.Link != "" {
				if links := item.Query(set.Link); len(links) > 0 {
					link = links[0].Attr("href")
				}
			}
			sourceURL := canonicalURL(resolve(base, link))
			if sourceURL == "" || seen[sourceURL] {
				continue
			}

			raw := sourcing.RawProduct{
				Name:           firstValue(item.Query(set.Name)),
				PriceText:      firstValue(item.Query(set.Price)),
				SourceURL:      sourceURL,
				SourcePlatform: s.Platform,
			}
			raw.Price, _ = sourcing.ParsePrice(raw.PriceText)
			raw.Currency = currencyFromText(raw.PriceText)
			raw.SourceProductID = sourcing.SourceProductIDFromURL(sourceURL)
			if images := item.Query(set.Image); len(images) > 0 {
				if src := resolve(base, imageSource(images[0])); src != "" {
					raw.Images = []string{src}
				}
			}

			if !raw.IsValid() {
				continue
			}
			seen[sourceURL] = true
			products = append(products, raw)
		}
		return products, true
	}
	return nil, false
}

// images returns the union of the first matching image set, with an
// accepted hint in front, deduplicated and capped
func (s *Strategy) images(doc Document, hint string) []string {
	base, _ := url.Parse(doc.URL())

	var candidates []string
	if hint = resolve(base, hint); hint != "" && s.acceptsImage(base, hint) {
		candidates = append(candidates, hint)
	}
	for _, set := range s.ImageSets {
		var matched []string
		for _, selector := range set {
			for _, el := range doc.Query(selector) {
				if src := resolve(base, imageSource(el)); src != "" {
					matched = append(matched, src)
				}
			}
		}
		if len(matched) > 0 {
			candidates = append(candidates, matched...)
			break
		}
	}

	images := make([]string, 0, catalog.MaxProductImages)
	seen := make(map[string]bool, len(candidates))
	for _, src := range candidates {
		if seen[src] {
			continue
		}
		seen[src] = true
		images = append(images, src)
		if len(images) == catalog.MaxProductImages {
			break
		}
	}
	return images
}

func (s *Strategy) acceptsImage(page *url.URL, image string) bool {
	u, err := url.Parse(image)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	domains := s.ImageDomains
	if len(domains) == 0 && page != nil {
		domains = []string{registrableDomain(page.Hostname())}
	}
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func firstValue(elements []Element) string {
	for _, el := range elements {
		if v := el.Value(); v != "" {
			return v
		}
	}
	return ""
}

func imageSource(el Element) string {
	for _, attr := range []string{"src", "data-src", "content", "href"} {
		if v := strings.TrimSpace(el.Attr(attr)); v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

// resolve makes ref absolute against base. Protocol-relative CDN links get
// the page's scheme.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "javascript:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// canonicalURL drops the fragment, and the tracking query when the path
// alone identifies the product
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	if u.RawQuery != "" {
		path := *u
		path.RawQuery = ""
		if sourcing.SourceProductIDFromURL(path.String()) != "" {
			u.RawQuery = ""
		}
	}
	return u.String()
}

func registrableDomain(host string) string {
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US $", "USD"},
	{"US$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "CNY"},
	{"R$", "BRL"},
	{"$", "USD"},
}

func currencyFromText(text string) string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.code
		}
	}
	return ""
}
