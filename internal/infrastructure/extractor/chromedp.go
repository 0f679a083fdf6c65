package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/dropship/backend/internal/domain/sourcing"
	"github.com/dropship/backend/internal/infrastructure/browser"
	"go.uber.org/zap"
)

// snapshotScript evaluates every query with querySelectorAll in one round
// trip. %s is the JSON encoded query list.
const snapshotScript = `(function (queries) {
  function capture(e) {
    var attrs = {};
    for (var i = 0; i < e.attributes.length; i++) {
      attrs[e.attributes[i].name] = e.attributes[i].value;
    }
    return { text: (e.innerText || e.textContent || "").trim(), attrs: attrs };
  }
  function all(root, selector) {
    try { return Array.prototype.slice.call(root.querySelectorAll(selector)); }
    catch (err) { return []; }
  }
  var nodes = {};
  queries.forEach(function (q) {
    nodes[q.selector] = all(document, q.selector).map(function (e) {
      var el = capture(e);
      if (q.within && q.within.length) {
        el.within = {};
        q.within.forEach(function (w) { el.within[w] = all(e, w).map(capture); });
      }
      return el;
    });
  });
  return { url: location.href, nodes: nodes };
})(%s)`

// ChromedpExtractor reads a live page in a headless browser tab
type ChromedpExtractor struct {
	browser  *browser.Browser
	strategy *Strategy
	timeout  time.Duration
	logger   *zap.Logger
}

var _ sourcing.PageExtractor = (*ChromedpExtractor)(nil)

// NewChromedpExtractor creates an extractor on a shared browser. timeout
// bounds one extraction including navigation.
func NewChromedpExtractor(b *browser.Browser, strategy *Strategy, timeout time.Duration, logger *zap.Logger) *ChromedpExtractor {
	if strategy == nil {
		strategy = DefaultStrategy()
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromedpExtractor{
		browser:  b,
		strategy: strategy,
		timeout:  timeout,
		logger:   logger.Named("extractor"),
	}
}

// Extract navigates to pageURL, waits for the body, captures the strategy's
// selectors and reads the records from the capture
func (e *ChromedpExtractor) Extract(ctx context.Context, pageURL string, hints sourcing.Hints) (*sourcing.ExtractResult, error) {
	if err := validatePageURL(pageURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tab, closeTab, err := e.browser.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	defer closeTab()

	run, stop := browser.Bind(tab, ctx)
	defer stop()

	snap, err := e.capture(run, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", pageURL, err)
	}

	result := e.strategy.Extract(snap, hints)
	e.logger.Info("Page extracted",
		zap.String("page_url", pageURL),
		zap.String("mode", string(result.Mode)),
		zap.Int("products", len(result.Products)),
	)
	return result, nil
}

func (e *ChromedpExtractor) capture(ctx context.Context, pageURL string) (*Snapshot, error) {
	queries, err := json.Marshal(e.strategy.Queries())
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	err = chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(snapshotScript, queries), &snap),
	)
	if err != nil {
		return nil, err
	}
	// Keep the requested URL; redirects to tracking URLs would break dedup
	snap.PageURL = pageURL
	return &snap, nil
}

func validatePageURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}
	return nil
}
