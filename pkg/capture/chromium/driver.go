// Package chromium implements capture.BrowserDriver on top of a headless
// Chrome controlled through the DevTools protocol.
package chromium

import (
	"context"
	"errors"
	"fmt"
	"os"
	"phishvault/pkg/capture"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const closeTimeout = 5 * time.Second

// Options configures the Chrome process.
type Options struct {
	// ExecPath is the Chrome binary. Empty means auto-detect.
	ExecPath string
	// Headless runs Chrome without a window.
	Headless bool
	// NoSandbox disables the Chrome sandbox, required when running as root in containers.
	NoSandbox bool
	// Proxy is an optional proxy server, e.g. "socks5://127.0.0.1:9050".
	Proxy string
	// UserAgent overrides the browser user agent.
	UserAgent string
	// WindowWidth and WindowHeight set the viewport used for screenshots.
	WindowWidth  int
	WindowHeight int
}

// Driver launches one Chrome process lazily and opens every session in its
// own browser context, so cookies and storage are never shared between captures.
type Driver struct {
	opts Options

	mu            sync.Mutex
	browserCtx    context.Context //nolint: containedctx
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// New returns a driver. Chrome is started on the first OpenContext.
func New(opts Options) *Driver {
	return &Driver{opts: opts}
}

func (d *Driver) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", d.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("mute-audio", true),
	)
	if d.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.opts.ExecPath))
	}
	if d.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if d.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(d.opts.Proxy))
	}
	if d.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.opts.UserAgent))
	}
	if d.opts.WindowWidth > 0 && d.opts.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(d.opts.WindowWidth, d.opts.WindowHeight))
	}

	return opts
}

// browser returns the context of a running Chrome, starting or restarting it
// when needed.
func (d *Driver) browser() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx != nil && d.browserCtx.Err() == nil {
		return d.browserCtx, nil
	}
	_ = d.shutdown()

	// the browser outlives any single capture
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// the first Run launches the process and must use the NewContext context
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()

		return nil, fmt.Errorf("could not start chrome: %w", err)
	}

	d.browserCtx, d.browserCancel, d.allocCancel = browserCtx, browserCancel, allocCancel

	return browserCtx, nil
}

// OpenContext creates a new tab in a fresh browser context and wires obs to
// its console and navigation events.
func (d *Driver) OpenContext(ctx context.Context, obs capture.Observer) (capture.Session, error) {
	browserCtx, err := d.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	chromedp.ListenTarget(tabCtx, listener(obs))

	stop := context.AfterFunc(ctx, tabCancel)
	err = chromedp.Run(tabCtx, network.Enable())
	stop()
	if err != nil {
		tabCancel()

		return nil, fmt.Errorf("could not open browser context: %w", err)
	}

	return &session{ctx: tabCtx, cancel: tabCancel}, nil
}

// Close stops Chrome. A browser that does not exit within a few seconds is killed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.shutdown()
}

// shutdown is called with mu held.
func (d *Driver) shutdown() error {
	if d.browserCtx == nil {
		return nil
	}

	var proc *os.Process
	if c := chromedp.FromContext(d.browserCtx); c != nil && c.Browser != nil {
		proc = c.Browser.Process()
	}

	browserCancel, allocCancel := d.browserCancel, d.allocCancel
	d.browserCtx, d.browserCancel, d.allocCancel = nil, nil, nil

	done := make(chan struct{})
	go func() {
		browserCancel()
		allocCancel()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(closeTimeout):
		if proc != nil {
			_ = proc.Kill()
		}

		return errors.New("chrome did not exit in time and was killed")
	}
}
