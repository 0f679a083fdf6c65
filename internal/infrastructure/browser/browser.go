// Package browser owns the Chrome instance shared by the page extractor and
// the order automation site. Each caller opens its own tab.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/dropship/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultNavigationTimeout = 30 * time.Second

// Browser holds the chromedp allocator. A local browser is launched lazily
// by the first tab; a remote one is attached through its DevTools URL.
type Browser struct {
	cfg         config.BrowserConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// New creates the allocator for the configured browser
func New(cfg *config.BrowserConfig, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Browser{
		cfg:    *cfg,
		logger: logger.Named("browser"),
	}
	if b.cfg.NavigationTimeout == 0 {
		b.cfg.NavigationTimeout = defaultNavigationTimeout
	}

	if b.cfg.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), b.cfg.RemoteURL)
	} else {
		b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), b.allocatorOptions()...)
	}
	return b
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.WindowSize(1366, 900),
	)
	if b.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// NavigationTimeout is the default bound for loading a page
func (b *Browser) NavigationTimeout() time.Duration {
	return b.cfg.NavigationTimeout
}

// NewTab opens a tab. The tab lives until the returned cancel func is
// called or ctx is done, whichever comes first.
func (b *Browser) NewTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := b.allocCtx.Err(); err != nil {
		return nil, nil, fmt.Errorf("browser closed: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			b.logger.Warn(fmt.Sprintf(format, args...))
		}),
	)
	stop := context.AfterFunc(ctx, tabCancel)

	// Run with no actions starts the browser (first tab) and opens the target
	if err := chromedp.Run(tabCtx); err != nil {
		stop()
		tabCancel()
		return nil, nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	return tabCtx, func() {
		stop()
		tabCancel()
	}, nil
}

// Close shuts down the allocator and every open tab
func (b *Browser) Close() error {
	b.closeOnce.Do(b.allocCancel)
	return nil
}

// Bind derives a context for running actions on tab that is also bounded
// by the deadline and cancellation of ctx. Cancelling the returned context
// aborts the running action without closing the tab.
func Bind(tab, ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(tab, deadline)
	} else {
		runCtx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
