// Package browser reads menus and reviews off dynamic place pages.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nurlan6812/food-agent/internal/common/config"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
	"github.com/nurlan6812/food-agent/internal/models"
)

const (
	menuTabSelector   = `a[href*="menuInfo"]`
	blogTabSelector   = `a[href*="blog"]`
	clickableSelector = "a, button, span"
)

// Page is one open browser tab. Calls are bound to the context the page was opened with.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	Click(selector string) (bool, error)
	ClickNth(selector string, index int) error
	Texts(selector string) ([]string, error)
	PriceBlocks() ([]string, error)
	ScrollToBottom() error
	BodyText() (string, error)
}

// Launcher opens a fresh page per flow.
type Launcher interface {
	Available() error
	Open(ctx context.Context) (Page, func(), error)
}

// Acquirer runs menu and review flows, one browser session at a time.
type Acquirer struct {
	launcher Launcher
	cfg      config.BrowserConfig
	baseURL  string
	slot     *semaphore.Weighted
	sleep    func(ctx context.Context, d time.Duration) error
	logger   logger.Logger
}

func NewAcquirer(launcher Launcher, cfg config.BrowserConfig, placeBaseURL string, log logger.Logger) *Acquirer {
	return &Acquirer{
		launcher: launcher,
		cfg:      cfg,
		baseURL:  strings.TrimRight(placeBaseURL, "/"),
		slot:     semaphore.NewWeighted(1),
		sleep:    sleepCtx,
		logger:   log.With(map[string]interface{}{"component": "browser"}),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Acquirer) placeURL(placeID string) string {
	return fmt.Sprintf("%s/%s", a.baseURL, placeID)
}

// Menu returns newline-joined menu lines. An empty string with a nil error
// means the page had no price-bearing nodes.
func (a *Acquirer) Menu(ctx context.Context, placeID string) (string, error) {
	var lines []string
	err := a.run(ctx, "menu", func(ctx context.Context, page Page) error {
		if err := page.Navigate(a.placeURL(placeID), a.cfg.NavigationTimeout); err != nil {
			return err
		}

		clicked, err := page.Click(menuTabSelector)
		if err != nil {
			a.logger.Debug("menu tab click failed", map[string]interface{}{"error": err.Error()})
		}
		if clicked {
			if err := a.sleep(ctx, a.cfg.SettleDelay); err != nil {
				return err
			}
		}

		if err := a.scroll(ctx, page); err != nil {
			return err
		}

		blocks, err := page.PriceBlocks()
		if err != nil {
			return err
		}
		lines = FilterMenuLines(blocks, a.cfg.MaxMenuLines)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// Reviews opens the review tab (or the blog tab) and parses what it shows.
// A place without either tab yields the REVIEWS_UNAVAILABLE error.
func (a *Acquirer) Reviews(ctx context.Context, placeID string, max int) (*models.ReviewSummary, error) {
	if max <= 0 {
		max = a.cfg.MaxReviews
	}

	var summary models.ReviewSummary
	err := a.run(ctx, "reviews", func(ctx context.Context, page Page) error {
		if err := page.Navigate(a.placeURL(placeID), a.cfg.NavigationTimeout); err != nil {
			return err
		}

		texts, err := page.Texts(clickableSelector)
		if err != nil {
			return err
		}

		blog := false
		if idx := ReviewTabIndex(texts); idx >= 0 {
			if err := page.ClickNth(clickableSelector, idx); err != nil {
				return err
			}
		} else {
			ok, err := page.Click(blogTabSelector)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.NewReviewsUnavailableError()
			}
			blog = true
		}
		if err := a.sleep(ctx, a.cfg.SettleDelay); err != nil {
			return err
		}

		if err := a.scroll(ctx, page); err != nil {
			return err
		}

		body, err := page.BodyText()
		if err != nil {
			return err
		}
		summary = ParseReviews(SplitLines(body), max)
		summary.IsBlogFallback = blog
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (a *Acquirer) scroll(ctx context.Context, page Page) error {
	for i := 0; i < a.cfg.ScrollRounds; i++ {
		if err := page.ScrollToBottom(); err != nil {
			return err
		}
		if err := a.sleep(ctx, a.cfg.ScrollPause); err != nil {
			return err
		}
	}
	return nil
}

// run executes fn on a fresh page inside the flow deadline. The session runs in
// its own goroutine and holds the single browser slot until it has torn down.
func (a *Acquirer) run(ctx context.Context, flow string, fn func(context.Context, Page) error) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			if se, ok := apperrors.AsStandard(err); ok {
				switch se.Code {
				case apperrors.ErrCodeReviewsUnavailable:
					outcome = "not_found"
				case apperrors.ErrCodeAutomationUnavailable:
					outcome = "unavailable"
				}
			}
		}
		metrics.BrowserFlows.WithLabelValues(flow, outcome).Inc()
	}()

	if err := a.launcher.Available(); err != nil {
		return err
	}

	if a.cfg.FlowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FlowTimeout)
		defer cancel()
	}

	if err := a.slot.Acquire(ctx, 1); err != nil {
		return apperrors.NewAutomationFailedError(err)
	}

	done := make(chan error, 1)
	go func() {
		defer a.slot.Release(1)
		defer func() {
			if r := recover(); r != nil {
				select {
				case done <- apperrors.NewAutomationFailedError(fmt.Errorf("panic: %v", r)):
				default:
				}
			}
		}()

		page, closePage, err := a.launcher.Open(ctx)
		if err != nil {
			done <- err
			return
		}
		done <- func() error {
			defer closePage()
			return fn(ctx, page)
		}()
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}

	if se, ok := apperrors.AsStandard(err); ok {
		return se
	}
	a.logger.Warn("browser flow failed", map[string]interface{}{"flow": flow, "error": err.Error()})
	return apperrors.NewAutomationFailedError(err)
}
