package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeDriver implements Driver on top of chromedp. All element addressing is
// CSS-selector based. The driver owns one browser context for its lifetime;
// Quit disposes of it.
type ChromeDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      Config
	logger      *zap.Logger
	mu          sync.Mutex
	closed      bool
}

var _ Driver = (*ChromeDriver)(nil)

// NewChromeDriver starts a browser and returns a driver bound to it.
func NewChromeDriver(config Config, logger *zap.Logger) (*ChromeDriver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	d := &ChromeDriver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
		logger:      logger.With(zap.String("component", "chrome_driver")),
	}

	if err := chromedp.Run(ctx); err != nil {
		allocCancel()
		cancel()
		return nil, NewError("start", err)
	}

	d.logger.Info("chrome browser started",
		zap.Bool("headless", config.Headless),
		zap.Int("viewport_w", config.ViewportWidth),
		zap.Int("viewport_h", config.ViewportHeight))

	return d, nil
}

// run executes chromedp actions against the browser context, honoring both
// the caller's context and the configured per-call timeout.
func (d *ChromeDriver) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return NewError(op, fmt.Errorf("browser already closed"))
	}

	runCtx := d.ctx
	var cancel context.CancelFunc
	if d.config.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d.config.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		if err != nil {
			return NewError(op, err)
		}
		return nil
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
		return NewError(op, ctx.Err())
	}
}

// Get navigates to url.
func (d *ChromeDriver) Get(ctx context.Context, url string) error {
	d.logger.Debug("navigating", zap.String("url", url))
	return d.run(ctx, "get", chromedp.Navigate(url))
}

// Click clicks the first element matching selector.
func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	d.logger.Debug("clicking", zap.String("selector", selector))
	return d.run(ctx, "click", chromedp.Click(selector, chromedp.ByQuery))
}

// TypeText clears the element matching selector and types text into it.
func (d *ChromeDriver) TypeText(ctx context.Context, selector, text string) error {
	d.logger.Debug("typing", zap.String("selector", selector), zap.Int("chars", len(text)))
	return d.run(ctx, "type",
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// TakeScreenshot captures a full-page screenshot and writes it to path,
// creating parent directories as needed.
func (d *ChromeDriver) TakeScreenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := d.run(ctx, "screenshot", chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return NewError("screenshot", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return NewError("screenshot", err)
	}
	d.logger.Debug("screenshot saved", zap.String("path", path), zap.Int("bytes", len(buf)))
	return nil
}

// IsElementPresent reports whether selector matches any element.
func (d *ChromeDriver) IsElementPresent(ctx context.Context, selector string) (bool, error) {
	var present bool
	script := fmt.Sprintf("document.querySelector(%q) !== null", selector)
	if err := d.run(ctx, "is_element_present", chromedp.Evaluate(script, &present)); err != nil {
		return false, err
	}
	return present, nil
}

// ExecuteScript evaluates script in the page and returns its value. Extra args
// are appended as a JSON array bound to the `arguments` identifier, matching
// what selenium-style scripts expect.
func (d *ChromeDriver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	expr := script
	if len(args) > 0 {
		encoded, err := encodeScriptArgs(args)
		if err != nil {
			return nil, NewError("execute_script", err)
		}
		expr = fmt.Sprintf("(function(){ const arguments_ = %s; return (function(arguments){ %s })(arguments_); })()", encoded, script)
	}

	// Await promises so async page scripts resolve to their value instead
	// of a pending promise handle.
	var out any
	eval := chromedp.Evaluate(expr, &out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	})
	if err := d.run(ctx, "execute_script", eval); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeScriptArgs(args []any) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode script args: %w", err)
	}
	return string(data), nil
}

// Quit shuts the browser down. Subsequent calls are no-ops.
func (d *ChromeDriver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.logger.Info("closing chrome browser")
	d.cancel()
	d.allocCancel()
	return nil
}
