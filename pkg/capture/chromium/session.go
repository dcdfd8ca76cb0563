package chromium

import (
	"context"
	"encoding/json"
	"phishvault/pkg/capture"
	"phishvault/pkg/domain"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// session is a single tab living in its own browser context.
type session struct {
	ctx    context.Context //nolint: containedctx
	cancel context.CancelFunc
	once   sync.Once
}

// bind derives a context that carries the tab and honors the deadline and
// cancellation of ctx.
func (s *session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parent := cancel
		cancel = func() {
			cancelDeadline()
			parent()
		}
	}
	stop := context.AfterFunc(ctx, cancel)

	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := s.bind(ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() != nil {
		// report the deadline rather than chromedp's wrapped cancellation
		return runCtx.Err() //nolint: wrapcheck
	}

	return err //nolint: wrapcheck
}

func (s *session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *session) HasElement(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, err //nolint: wrapcheck
	}

	var found bool
	if err := s.run(ctx, chromedp.Evaluate("document.querySelector("+string(quoted)+") !== null", &found)); err != nil {
		return false, err
	}

	return found, nil
}

func (s *session) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *session) Snapshot(ctx context.Context) (capture.Snapshot, error) {
	var (
		snap    capture.Snapshot
		cookies []*network.Cookie
	)
	err := s.run(ctx,
		chromedp.Location(&snap.FinalURL),
		chromedp.OuterHTML("html", &snap.HTML, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)

			return err //nolint: wrapcheck
		}),
	)
	if err != nil {
		return capture.Snapshot{}, err
	}

	snap.Cookies = make([]domain.Cookie, 0, len(cookies))
	for _, c := range cookies {
		snap.Cookies = append(snap.Cookies, domain.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		})
	}

	return snap, nil
}

func (s *session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}

	return buf, nil
}

// Close closes the tab, which also disposes its browser context.
func (s *session) Close() error {
	s.once.Do(s.cancel)

	return nil
}

// listener forwards top level navigations, document redirects and console
// messages to obs.
func listener(obs capture.Observer) func(ev any) {
	return func(ev any) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			obs.OnConsole(consoleMessage(ev.Args))
		case *page.EventFrameNavigated:
			if ev.Frame != nil && ev.Frame.ParentID == "" {
				obs.OnNavigate(ev.Frame.URL)
			}
		case *network.EventRequestWillBeSent:
			if ev.Type != network.ResourceTypeDocument || ev.RedirectResponse == nil {
				return
			}
			obs.OnNavigate(ev.RedirectResponse.URL)
			if ev.Request != nil {
				obs.OnNavigate(ev.Request.URL)
			}
		}
	}
}

func consoleMessage(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case arg == nil:
		case len(arg.Value) > 0:
			var s string
			if err := json.Unmarshal(arg.Value, &s); err == nil {
				parts = append(parts, s)
			} else {
				parts = append(parts, string(arg.Value))
			}
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, arg.Type.String())
		}
	}

	return strings.Join(parts, " ")
}
