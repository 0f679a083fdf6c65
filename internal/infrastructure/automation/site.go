// Package automation drives the source storefront checkout in a browser tab
// to replicate customer orders.
package automation

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	appfulfillment "github.com/dropship/backend/internal/application/fulfillment"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/dropship/backend/internal/infrastructure/browser"
	"go.uber.org/zap"
)

// maxCartClears bounds the remove-item loop of ClearCart
const maxCartClears = 50

// ChromedpSite is one checkout session in its own browser tab
type ChromedpSite struct {
	tab       context.Context
	closeTab  context.CancelFunc
	selectors SiteSelectors
	logger    *zap.Logger

	closeOnce sync.Once
}

var _ appfulfillment.SourceSite = (*ChromedpSite)(nil)

func newSite(tab context.Context, closeTab context.CancelFunc, selectors SiteSelectors, logger *zap.Logger) *ChromedpSite {
	return &ChromedpSite{
		tab:       tab,
		closeTab:  closeTab,
		selectors: selectors,
		logger:    logger,
	}
}

// run executes actions on the tab bounded by ctx
func (s *ChromedpSite) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.tab.Err(); err != nil {
		return ErrSessionClosed
	}
	runCtx, stop := browser.Bind(s.tab, ctx)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *ChromedpSite) settle() chromedp.Action {
	return chromedp.Sleep(s.selectors.SettleDelay)
}

// ClearCart opens the cart and removes items until none are left
func (s *ChromedpSite) ClearCart(ctx context.Context) error {
	if err := s.run(ctx,
		chromedp.Navigate(s.selectors.CartURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		s.settle(),
	); err != nil {
		return fmt.Errorf("failed to open cart: %w", err)
	}

	for removed := 0; ; removed++ {
		var remaining int
		if err := s.run(ctx, chromedp.Evaluate(countScript(s.selectors.CartItemRemove), &remaining)); err != nil {
			return err
		}
		if remaining == 0 {
			if removed > 0 {
				s.logger.Debug("Cart cleared", zap.Int("removed", removed))
			}
			return nil
		}
		if removed >= maxCartClears {
			return fmt.Errorf("%w: %d items left", ErrCartNotEmpty, remaining)
		}

		var clicked bool
		if err := s.run(ctx,
			chromedp.Evaluate(clickFirstScript(s.selectors.CartItemRemove), &clicked),
			s.settle(),
		); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("%w: %s", ErrElementNotFound, s.selectors.CartItemRemove)
		}
	}
}

// AddToCart opens the product page, sets the quantity and adds the item
func (s *ChromedpSite) AddToCart(ctx context.Context, item fulfillment.LineItem) error {
	if err := validateLineItem(item); err != nil {
		return err
	}

	if err := s.run(ctx,
		chromedp.Navigate(item.SourceURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(s.selectors.AddToCart, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open product page: %w", err)
	}

	if item.Quantity > 1 {
		var found bool
		if err := s.run(ctx, chromedp.Evaluate(setValueScript(s.selectors.QuantityInput, fmt.Sprint(item.Quantity)), &found)); err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: quantity input %s", ErrElementNotFound, s.selectors.QuantityInput)
		}
	}

	if err := s.run(ctx,
		chromedp.Click(s.selectors.AddToCart, chromedp.ByQuery),
		s.settle(),
	); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Debug("Item added to cart",
		zap.String("source_product_id", item.SourceProductID),
		zap.Int("quantity", item.Quantity),
	)
	return nil
}

// OpenCartAndCheckout opens the cart and proceeds to the checkout form
func (s *ChromedpSite) OpenCartAndCheckout(ctx context.Context) error {
	if err := s.run(ctx,
		chromedp.Navigate(s.selectors.CartURL),
		chromedp.WaitVisible(s.selectors.Checkout, chromedp.ByQuery),
		chromedp.Click(s.selectors.Checkout, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(s.selectors.PlaceOrder, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to start checkout: %w", err)
	}
	return nil
}

// FillShippingAddress writes every non-empty address field into its input.
// Fields without a configured selector are skipped.
func (s *ChromedpSite) FillShippingAddress(ctx context.Context, address valueobject.ShippingAddress) error {
	for _, field := range address.Fields() {
		selector := s.selectors.AddressFields[field.Key]
		if selector == "" {
			s.logger.Debug("No input configured for address field", zap.String("field", field.Key))
			continue
		}

		var found bool
		if err := s.run(ctx, chromedp.Evaluate(setValueScript(selector, field.Value), &found)); err != nil {
			return fmt.Errorf("failed to fill %s: %w", field.Key, err)
		}
		if !found {
			return fmt.Errorf("%w: address field %s (%s)", ErrElementNotFound, field.Key, selector)
		}
	}
	return s.run(ctx, s.settle())
}

// PlaceOrder submits the order and reads the confirmation page
func (s *ChromedpSite) PlaceOrder(ctx context.Context) (*fulfillment.Confirmation, error) {
	if err := s.run(ctx,
		chromedp.WaitVisible(s.selectors.PlaceOrder, chromedp.ByQuery),
		chromedp.Click(s.selectors.PlaceOrder, chromedp.ByQuery),
		chromedp.WaitVisible(s.selectors.Confirmation, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	var text confirmationText
	if err := s.run(ctx, chromedp.Evaluate(
		confirmationScript(s.selectors.OrderNumber, s.selectors.TrackingNumber, s.selectors.TrackingLink),
		&text,
	)); err != nil {
		return nil, fmt.Errorf("failed to read confirmation: %w", err)
	}

	conf := newConfirmation(text)
	s.logger.Info("Order placed on source site",
		zap.String("source_order_number", conf.SourceOrderNumber),
		zap.Bool("has_tracking", conf.TrackingNumber != ""),
	)
	return conf, nil
}

func newConfirmation(text confirmationText) *fulfillment.Confirmation {
	conf := &fulfillment.Confirmation{
		SourceOrderNumber: parseIdentifier(text.OrderNumber),
		TrackingNumber:    parseIdentifier(text.TrackingNumber),
	}
	if u, err := url.Parse(text.TrackingURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		conf.TrackingURL = u.String()
	}
	return conf
}

// Screenshot captures the full page as PNG
func (s *ChromedpSite) Screenshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		data, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return data, nil
}

// Close closes the tab
func (s *ChromedpSite) Close() error {
	s.closeOnce.Do(s.closeTab)
	return nil
}

func validateLineItem(item fulfillment.LineItem) error {
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidLineItem, item.Quantity)
	}
	u, err := url.Parse(item.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: source url %q", ErrInvalidLineItem, item.SourceURL)
	}
	return nil
}

// Factory opens checkout sessions on a shared browser
type Factory struct {
	browser   *browser.Browser
	selectors SiteSelectors
	logger    *zap.Logger
}

var _ appfulfillment.SiteFactory = (*Factory)(nil)

// NewFactory creates a session factory
func NewFactory(b *browser.Browser, selectors SiteSelectors, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if selectors.SettleDelay < 0 {
		selectors.SettleDelay = 0
	}
	return &Factory{
		browser:   b,
		selectors: selectors,
		logger:    logger.Named("automation"),
	}
}

// Open opens a new tab. The session ends when ctx is done or Close is called.
func (f *Factory) Open(ctx context.Context) (appfulfillment.SourceSite, error) {
	tab, closeTab, err := f.browser.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	return newSite(tab, closeTab, f.selectors, f.logger), nil
}
