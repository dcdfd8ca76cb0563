package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"phishvault/pkg/serrors"
	"time"

	"go.uber.org/zap"
)

const formSelector = "form"

// Options holds the timeouts of a capture.
type Options struct {
	// NavigationTimeout bounds loading the target document.
	NavigationTimeout time.Duration
	// FormWaitTimeout bounds waiting for a form of the loaded document to be ready.
	FormWaitTimeout time.Duration
	// SnapshotTimeout bounds reading markup, cookies and the screenshot.
	SnapshotTimeout time.Duration
}

// DefaultOptions returns the timeouts used when none are configured.
func DefaultOptions() Options {
	return Options{
		NavigationTimeout: 10 * time.Second, //nolint: mnd
		FormWaitTimeout:   5 * time.Second,  //nolint: mnd
		SnapshotTimeout:   10 * time.Second, //nolint: mnd
	}
}

// Agent captures signal bundles. It holds no per-capture state and can be
// used by many goroutines at once.
type Agent struct {
	driver BrowserDriver
	shots  ScreenshotStore
	opts   Options
}

// NewAgent returns an agent driving driver. A nil shots disables screenshots.
func NewAgent(driver BrowserDriver, shots ScreenshotStore, opts Options) *Agent {
	def := DefaultOptions()
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = def.NavigationTimeout
	}
	if opts.FormWaitTimeout <= 0 {
		opts.FormWaitTimeout = def.FormWaitTimeout
	}
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = def.SnapshotTimeout
	}

	return &Agent{driver: driver, shots: shots, opts: opts}
}

// Capture renders rawURL in a fresh browsing context and returns what was
// observed. Page level failures such as timeouts, DNS or TLS errors never
// surface as errors: they are recorded in the bundle's CaptureErrors and the
// partial bundle is returned. An error is returned only when the browser
// engine is unusable or ctx itself is done.
func (a *Agent) Capture(ctx context.Context, rawURL string) (domain.SignalBundle, error) {
	ctx = logger.WithFields(ctx, zap.String("URL", rawURL))
	bundle := domain.NewSignalBundle(rawURL)

	if err := validURL(rawURL); err != nil {
		noteError(ctx, &bundle, "invalid url: "+err.Error())

		return bundle, nil
	}

	col := newCollector()
	session, err := a.driver.OpenContext(ctx, col)
	if err != nil {
		return domain.SignalBundle{}, serrors.Wrap(serrors.ErrUnavailable, err, "could not open browser context")
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn(ctx, "could not close browser context", zap.Error(err))
		}
	}()

	a.run(ctx, session, &bundle)
	if err := ctx.Err(); err != nil {
		return domain.SignalBundle{}, fmt.Errorf("capture aborted: %w", err)
	}
	bundle.ConsoleLogs, bundle.RedirectChain = col.result()

	return bundle, nil
}

// run fills bundle from session, recording every failure as a note.
func (a *Agent) run(ctx context.Context, session Session, bundle *domain.SignalBundle) {
	if err := a.navigate(ctx, session, bundle.RequestedURL); err != nil {
		noteError(ctx, bundle, "navigation failed: "+describe(err, a.opts.NavigationTimeout))

		return
	}

	if err := a.waitForForm(ctx, session); err != nil {
		noteError(ctx, bundle, "form wait: "+describe(err, a.opts.FormWaitTimeout))
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.SnapshotTimeout)
	defer cancel()

	snap, err := session.Snapshot(ctx)
	if err != nil {
		noteError(ctx, bundle, "snapshot failed: "+describe(err, a.opts.SnapshotTimeout))
	} else {
		if snap.FinalURL != "" {
			bundle.FinalURL = snap.FinalURL
		}
		bundle.RenderedHTML = snap.HTML
		if snap.Cookies != nil {
			bundle.Cookies = snap.Cookies
		}
	}

	if a.shots == nil {
		return
	}
	ref, err := a.screenshot(ctx, session)
	if err != nil {
		noteError(ctx, bundle, "screenshot failed: "+describe(err, a.opts.SnapshotTimeout))

		return
	}
	bundle.ScreenshotRef = ref
}

func (a *Agent) navigate(ctx context.Context, session Session, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.NavigationTimeout)
	defer cancel()

	return session.Navigate(ctx, rawURL) //nolint: wrapcheck
}

// waitForForm gives a form present in the loaded document a bounded window
// to become ready. Pages without a form are not waited on.
func (a *Agent) waitForForm(ctx context.Context, session Session) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FormWaitTimeout)
	defer cancel()

	present, err := session.HasElement(ctx, formSelector)
	if err != nil || !present {
		return err //nolint: wrapcheck
	}

	return session.WaitFor(ctx, formSelector) //nolint: wrapcheck
}

func (a *Agent) screenshot(ctx context.Context, session Session) (string, error) {
	png, err := session.Screenshot(ctx)
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return a.shots.Save(ctx, png) //nolint: wrapcheck
}

func validURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err //nolint: wrapcheck
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}

	return nil
}

func describe(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", timeout)
	}

	return err.Error()
}

func noteError(ctx context.Context, bundle *domain.SignalBundle, note string) {
	logger.Warn(ctx, "capture degraded", zap.String("note", note))
	bundle.CaptureErrors = append(bundle.CaptureErrors, note)
}
