package automation

import (
	"time"

	"github.com/dropship/backend/internal/infrastructure/config"
)

// SiteSelectors describes the storefront pages the automation drives
type SiteSelectors struct {
	CartURL     string
	SettleDelay time.Duration

	QuantityInput  string
	AddToCart      string
	CartItemRemove string
	Checkout       string
	PlaceOrder     string
	Confirmation   string
	OrderNumber    string
	TrackingNumber string
	TrackingLink   string
	// AddressFields maps an address field key to its form input
	AddressFields map[string]string
}

// SelectorsFromConfig copies the storefront settings out of the site config
func SelectorsFromConfig(cfg *config.SiteConfig) SiteSelectors {
	fields := make(map[string]string, len(cfg.Selectors.AddressFields))
	for k, v := range cfg.Selectors.AddressFields {
		fields[k] = v
	}
	return SiteSelectors{
		CartURL:        cfg.CartURL,
		SettleDelay:    cfg.SettleDelay,
		QuantityInput:  cfg.Selectors.QuantityInput,
		AddToCart:      cfg.Selectors.AddToCart,
		CartItemRemove: cfg.Selectors.CartItemRemove,
		Checkout:       cfg.Selectors.Checkout,
		PlaceOrder:     cfg.Selectors.PlaceOrder,
		Confirmation:   cfg.Selectors.Confirmation,
		OrderNumber:    cfg.Selectors.OrderNumber,
		TrackingNumber: cfg.Selectors.TrackingNumber,
		TrackingLink:   cfg.Selectors.TrackingLink,
		AddressFields:  fields,
	}
}
