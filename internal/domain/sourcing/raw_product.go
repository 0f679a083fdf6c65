package sourcing

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// RawProduct is a candidate product record as scraped from a source page,
// before any tenant-specific transformation.
type RawProduct struct {
	Name            string   `json:"name"`
	Price           float64  `json:"price,omitempty"`
	PriceText       string   `json:"price_text,omitempty"`
	Description     string   `json:"description,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Images          []string `json:"images,omitempty"`
	SourceURL       string   `json:"source_url"`
	SourceProductID string   `json:"source_product_id,omitempty"`
	SourcePlatform  string   `json:"source_platform,omitempty"`
}

// UnmarshalJSON also accepts the camelCase keys sent by the browser
// extension (priceText, sourceUrl, sourceProductId, sourcePlatform). The
// snake_case key wins when both are present.
func (r *RawProduct) UnmarshalJSON(data []byte) error {
	type plain RawProduct
	var in struct {
		plain
		PriceTextCamel       string `json:"priceText"`
		SourceURLCamel       string `json:"sourceUrl"`
		SourceProductIDCamel string `json:"sourceProductId"`
		SourcePlatformCamel  string `json:"sourcePlatform"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = RawProduct(in.plain)
	if r.PriceText == "" {
		r.PriceText = in.PriceTextCamel
	}
	if r.SourceURL == "" {
		r.SourceURL = in.SourceURLCamel
	}
	if r.SourceProductID == "" {
		r.SourceProductID = in.SourceProductIDCamel
	}
	if r.SourcePlatform == "" {
		r.SourcePlatform = in.SourcePlatformCamel
	}
	return nil
}

// ResolvedPrice returns the numeric price, falling back to parsing PriceText
func (r RawProduct) ResolvedPrice() (float64, bool) {
	if r.Price > 0 {
		return r.Price, true
	}
	if r.PriceText == "" {
		return 0, false
	}
	return ParsePrice(r.PriceText)
}

// IsValid reports whether the record has a name and a positive price
func (r RawProduct) IsValid() bool {
	if strings.TrimSpace(r.Name) == "" {
		return false
	}
	price, ok := r.ResolvedPrice()
	return ok && price > 0
}

var productIDPattern = regexp.MustCompile(`(\d{4,})(?:\.html?)?/?$`)

// SourceProductIDFromURL derives the platform product id from a listing URL.
// It prefers an explicit id query parameter and falls back to the trailing
// numeric path token. Returns "" when nothing matches.
func SourceProductIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	for _, key := range []string{"productId", "item_id", "itemId", "id"} {
		if v := u.Query().Get(key); v != "" {
			return v
		}
	}
	if m := productIDPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

// ExtractMode tells whether a page was read as a single product or a list
type ExtractMode string

const (
	ExtractModeDetail  ExtractMode = "detail"
	ExtractModeListing ExtractMode = "listing"
)

// Hints are optional user selections made on the page before extraction
type Hints struct {
	ImageURL     string `json:"image_url,omitempty"`
	SelectedText string `json:"selected_text,omitempty"`
}

// ExtractResult holds the records read from one page
type ExtractResult struct {
	Mode     ExtractMode  `json:"mode"`
	PageURL  string       `json:"page_url"`
	Products []RawProduct `json:"products"`
}

// PageExtractor reads zero or more raw product records from a source page.
// Implementations must not persist anything.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string, hints Hints) (*ExtractResult, error)
}
