package sourcing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dropship/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// priceRun matches the first run of digits and separators in a price label.
// Ranges such as "19.99 - 29.99" resolve to their lower bound.
var priceRun = regexp.MustCompile(`\d[\d.,\s\x{00a0}]*`)

// ParsePrice extracts a number from a human-formatted price label such as
// "$19.99", "US $1,234.50" or "1.234,56 €". The rightmost separator is the
// decimal point when it is followed by one or two digits; every other
// separator is treated as a thousands separator.
func ParsePrice(text string) (float64, bool) {
	run := priceRun.FindString(text)
	if run == "" {
		return 0, false
	}

	var b strings.Builder
	for _, r := range run {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" {
		return 0, false
	}

	decimalAt := -1
	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 {
		if tail := len(cleaned) - i - 1; tail == 1 || tail == 2 {
			decimalAt = i
		}
	}

	var normalized strings.Builder
	for i, r := range cleaned {
		switch {
		case i == decimalAt:
			normalized.WriteByte('.')
		case r == '.' || r == ',':
		default:
			normalized.WriteRune(r)
		}
	}

	v, err := strconv.ParseFloat(normalized.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceAdjustmentType selects how a price adjustment is applied
type PriceAdjustmentType string

const (
	PriceAdjustmentPercentage PriceAdjustmentType = "percentage"
	PriceAdjustmentFixed      PriceAdjustmentType = "fixed"
)

// IsValid checks if the adjustment type is valid
func (t PriceAdjustmentType) IsValid() bool {
	return t == PriceAdjustmentPercentage || t == PriceAdjustmentFixed
}

// PriceAdjustment is a markup applied to every imported price
type PriceAdjustment struct {
	Type  PriceAdjustmentType `json:"type"`
	Value decimal.Decimal     `json:"value"`
}

// Validate checks the adjustment
func (a PriceAdjustment) Validate() error {
	if !a.Type.IsValid() {
		return shared.NewDomainError("INVALID_PRICE_ADJUSTMENT", fmt.Sprintf("Invalid price adjustment type: %s", a.Type))
	}
	return nil
}

// Apply returns the adjusted price rounded to cents. A fixed adjustment is
// added as is and may produce a negative price; the result is not clamped.
func (a PriceAdjustment) Apply(price decimal.Decimal) decimal.Decimal {
	switch a.Type {
	case PriceAdjustmentPercentage:
		factor := decimal.NewFromInt(1).Add(a.Value.Div(decimal.NewFromInt(100)))
		return price.Mul(factor).Round(2)
	case PriceAdjustmentFixed:
		return price.Add(a.Value).Round(2)
	default:
		return price.Round(2)
	}
}

// ImportSettings are the per-batch options supplied with an import request
type ImportSettings struct {
	AutoApprove     bool             `json:"auto_approve"`
	PriceAdjustment *PriceAdjustment `json:"price_adjustment,omitempty"`
}

// Validate checks the settings
func (s ImportSettings) Validate() error {
	if s.PriceAdjustment != nil {
		return s.PriceAdjustment.Validate()
	}
	return nil
}
