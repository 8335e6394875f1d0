package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/nurlan6812/food-agent/internal/common/config"
	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
)

var chromeBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

// ChromeLauncher starts a dedicated Chrome process per flow.
type ChromeLauncher struct {
	cfg config.BrowserConfig
}

func NewChromeLauncher(cfg config.BrowserConfig) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg}
}

func (l *ChromeLauncher) execPath() string {
	if l.cfg.ExecPath != "" {
		if _, err := os.Stat(l.cfg.ExecPath); err == nil {
			return l.cfg.ExecPath
		}
		return ""
	}
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// Available reports whether a browser can be started at all.
func (l *ChromeLauncher) Available() error {
	if !l.cfg.Enabled {
		return apperrors.NewAutomationUnavailableError("browser automation disabled")
	}
	if l.execPath() == "" {
		return apperrors.NewAutomationUnavailableError("no Chrome or Chromium binary found")
	}
	return nil
}

func (l *ChromeLauncher) Open(ctx context.Context) (Page, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(l.execPath()),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if l.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.cfg.UserAgent))
	}
	if l.cfg.ShowWindow {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	closeFn := func() {
		cancelTab()
		cancelAlloc()
	}

	if err := chromedp.Run(tabCtx, emulation.SetLocaleOverride().WithLocale("ko-KR")); err != nil {
		closeFn()
		return nil, func() {}, apperrors.NewAutomationUnavailableError(err.Error())
	}
	return &chromePage{ctx: tabCtx}, closeFn, nil
}

type chromePage struct {
	ctx context.Context
}

// Navigate loads url. Running out of the navigation budget is not an error:
// whatever has rendered so far is used.
func (p *chromePage) Navigate(url string, timeout time.Duration) error {
	ctx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, timeout)
		defer cancel()
	}

	err := chromedp.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
	if err != nil && errors.Is(err, context.DeadlineExceeded) && p.ctx.Err() == nil {
		return nil
	}
	return err
}

func (p *chromePage) eval(js string, out interface{}) error {
	return chromedp.Run(p.ctx, chromedp.Evaluate(js, out))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (p *chromePage) Click(selector string) (bool, error) {
	var ok bool
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; el.click(); return true; })()`, quote(selector))
	if err := p.eval(js, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *chromePage) ClickNth(selector string, index int) error {
	var ok bool
	js := fmt.Sprintf(`(() => { const el = document.querySelectorAll(%s)[%d]; if (!el) return false; el.click(); return true; })()`, quote(selector), index)
	if err := p.eval(js, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element %d of %q disappeared", index, selector)
	}
	return nil
}

func (p *chromePage) Texts(selector string) ([]string, error) {
	var texts []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => (e.innerText || e.textContent || '').trim())`, quote(selector))
	if err := p.eval(js, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

const priceBlocksJS = `(() => {
  const snap = document.evaluate('//*[contains(text(), "원")]', document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  const out = [];
  for (let i = 0; i < snap.snapshotLength; i++) {
    const parent = snap.snapshotItem(i).parentElement;
    const grand = parent && parent.parentElement;
    if (grand) out.push(grand.innerText || '');
  }
  return out;
})()`

// PriceBlocks returns the grandparent text of every element whose own text contains "원".
func (p *chromePage) PriceBlocks() ([]string, error) {
	var blocks []string
	if err := p.eval(priceBlocksJS, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (p *chromePage) ScrollToBottom() error {
	return p.eval(`window.scrollTo(0, document.body.scrollHeight)`, nil)
}

func (p *chromePage) BodyText() (string, error) {
	var text string
	if err := chromedp.Run(p.ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}
