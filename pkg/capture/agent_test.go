package capture_test

import (
	"context"
	"errors"
	"phishvault/pkg/capture"
	mockcapture "phishvault/pkg/capture/mock"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"phishvault/pkg/serrors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const target = "https://login.example.test/"

func testOptions() capture.Options {
	return capture.Options{
		NavigationTimeout: 50 * time.Millisecond,
		FormWaitTimeout:   20 * time.Millisecond,
		SnapshotTimeout:   50 * time.Millisecond,
	}
}

// openWith makes the driver hand out session and replays events on the
// observer once navigation starts.
func openWith(driver *mockcapture.MockBrowserDriver, session capture.Session, observed *capture.Observer) {
	driver.EXPECT().OpenContext(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, obs capture.Observer) (capture.Session, error) {
			*observed = obs

			return session, nil
		})
}

func TestAgent_Capture_Success(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)
	shots := mockcapture.NewMockScreenshotStore(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)

	gomock.InOrder(
		session.EXPECT().Navigate(gomock.Any(), target).DoAndReturn(func(context.Context, string) error {
			obs.OnNavigate(target)
			obs.OnNavigate("https://step.example.test/")
			obs.OnNavigate(target)
			obs.OnNavigate("https://final.example.test/")
			obs.OnConsole("atob(payload)")
			obs.OnConsole("ready")

			return nil
		}),
		session.EXPECT().HasElement(gomock.Any(), "form").Return(true, nil),
		session.EXPECT().WaitFor(gomock.Any(), "form").Return(nil),
		session.EXPECT().Snapshot(gomock.Any()).Return(capture.Snapshot{
			FinalURL: "https://final.example.test/",
			HTML:     `<html><form><input type="password"></form></html>`,
			Cookies:  []domain.Cookie{{Name: "sid", Value: "1", Domain: "final.example.test"}},
		}, nil),
		session.EXPECT().Screenshot(gomock.Any()).Return([]byte("png"), nil),
	)
	shots.EXPECT().Save(gomock.Any(), []byte("png")).Return("/screenshots/a.png", nil)
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, shots, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)

	require.Equal(t, target, b.RequestedURL)
	require.Equal(t, "https://final.example.test/", b.FinalURL)
	require.Equal(t, []string{target, "https://step.example.test/", "https://final.example.test/"}, b.RedirectChain)
	require.Equal(t, []string{"atob(payload)", "ready"}, b.ConsoleLogs)
	require.Len(t, b.Cookies, 1)
	require.Contains(t, b.RenderedHTML, "password")
	require.Equal(t, "/screenshots/a.png", b.ScreenshotRef)
	require.Empty(t, b.CaptureErrors)
	require.NotNil(t, b.CaptureErrors)
}

func TestAgent_Capture_NavigationTimeout(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)

	// the page never finishes loading
	session.EXPECT().Navigate(gomock.Any(), target).DoAndReturn(func(ctx context.Context, _ string) error {
		obs.OnNavigate(target)
		<-ctx.Done()

		return ctx.Err()
	})
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, nil, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)

	require.Equal(t, target, b.FinalURL)
	require.Empty(t, b.RenderedHTML)
	require.NotEmpty(t, b.CaptureErrors)
	require.True(t, strings.Contains(b.CaptureErrors[0], "timed out"))
	require.Equal(t, []string{target}, b.RedirectChain)
	require.NotNil(t, b.ConsoleLogs)
	require.NotNil(t, b.Cookies)
	require.True(t, b.Degraded())
}

func TestAgent_Capture_NavigationError(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).Return(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	session.EXPECT().Close().Return(errors.New("already closed"))

	agent := capture.NewAgent(driver, nil, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, []string{"navigation failed: net::ERR_NAME_NOT_RESOLVED"}, b.CaptureErrors)
	require.Equal(t, target, b.FinalURL)
}

func TestAgent_Capture_PageWithoutFormIsNotWaitedOn(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).Return(nil)
	session.EXPECT().HasElement(gomock.Any(), "form").Return(false, nil)
	session.EXPECT().Snapshot(gomock.Any()).Return(capture.Snapshot{FinalURL: target, HTML: "<p>plain page</p>"}, nil)
	session.EXPECT().Close().Return(nil)

	opts := testOptions()
	opts.FormWaitTimeout = time.Second
	agent := capture.NewAgent(driver, nil, opts)

	start := time.Now()
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)
	require.Less(t, time.Since(start), opts.FormWaitTimeout)
	require.Equal(t, "<p>plain page</p>", b.RenderedHTML)
	require.NotNil(t, b.CaptureErrors)
	require.Empty(t, b.CaptureErrors)
	require.False(t, b.Degraded())
}

func TestAgent_Capture_FormWaitTimeoutIsNotFatal(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).Return(nil)
	session.EXPECT().HasElement(gomock.Any(), "form").Return(true, nil)
	session.EXPECT().WaitFor(gomock.Any(), "form").DoAndReturn(func(ctx context.Context, _ string) error {
		<-ctx.Done()

		return ctx.Err()
	})
	html := `<form action="/login"><input type="password"></form>`
	session.EXPECT().Snapshot(gomock.Any()).Return(capture.Snapshot{FinalURL: target, HTML: html}, nil)
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, nil, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, html, b.RenderedHTML)
	require.Equal(t, []string{"form wait: timed out after 20ms"}, b.CaptureErrors)
	require.NotNil(t, b.Cookies)
}

func TestAgent_Capture_FormCheckFailureIsNoted(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).Return(nil)
	session.EXPECT().HasElement(gomock.Any(), "form").Return(false, errors.New("execution context was destroyed"))
	session.EXPECT().Snapshot(gomock.Any()).Return(capture.Snapshot{FinalURL: target, HTML: "<p>hi</p>"}, nil)
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, nil, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, []string{"form wait: execution context was destroyed"}, b.CaptureErrors)
}

func TestAgent_Capture_SnapshotAndScreenshotFailures(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)
	shots := mockcapture.NewMockScreenshotStore(ctrl)

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).Return(nil)
	session.EXPECT().HasElement(gomock.Any(), "form").Return(false, nil)
	session.EXPECT().Snapshot(gomock.Any()).Return(capture.Snapshot{}, errors.New("target crashed"))
	session.EXPECT().Screenshot(gomock.Any()).Return(nil, errors.New("target crashed"))
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, shots, testOptions())
	b, err := agent.Capture(context.Background(), target)
	require.NoError(t, err)
	require.Equal(t, target, b.FinalURL)
	require.Empty(t, b.ScreenshotRef)
	require.Len(t, b.CaptureErrors, 2)
}

func TestAgent_Capture_InvalidURL(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)

	agent := capture.NewAgent(driver, nil, testOptions())
	for _, raw := range []string{"ftp://example.test/", "https://", "::not a url"} {
		b, err := agent.Capture(context.Background(), raw)
		require.NoError(t, err)
		require.Equal(t, raw, b.FinalURL)
		require.Len(t, b.CaptureErrors, 1)
	}
}

func TestAgent_Capture_BrowserUnavailable(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	driver.EXPECT().OpenContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("chrome not found"))

	agent := capture.NewAgent(driver, nil, testOptions())
	_, err := agent.Capture(context.Background(), target)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
}

func TestAgent_Capture_CallerCanceled(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)
	session := mockcapture.NewMockSession(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	var obs capture.Observer
	openWith(driver, session, &obs)
	session.EXPECT().Navigate(gomock.Any(), target).DoAndReturn(func(context.Context, string) error {
		cancel()

		return context.Canceled
	})
	session.EXPECT().Close().Return(nil)

	agent := capture.NewAgent(driver, nil, testOptions())
	_, err := agent.Capture(ctx, target)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAgent_Capture_ConcurrentCapturesAreIsolated(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ctrl := gomock.NewController(t)
	driver := mockcapture.NewMockBrowserDriver(ctrl)

	const n = 8
	driver.EXPECT().OpenContext(gomock.Any(), gomock.Any()).Times(n).
		DoAndReturn(func(_ context.Context, obs capture.Observer) (capture.Session, error) {
			return &echoSession{obs: obs}, nil
		})

	agent := capture.NewAgent(driver, nil, testOptions())

	var wg sync.WaitGroup
	results := make([]domain.SignalBundle, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := agent.Capture(context.Background(), "https://site"+string(rune('a'+i))+".test/")
			require.NoError(t, err)
			results[i] = b
		}()
	}
	wg.Wait()

	for _, b := range results {
		require.Equal(t, []string{b.RequestedURL}, b.RedirectChain)
		require.Equal(t, []string{"loaded " + b.RequestedURL}, b.ConsoleLogs)
	}
}

// echoSession reports exactly one navigation and one console message.
type echoSession struct {
	obs capture.Observer
	url string
}

func (s *echoSession) Navigate(_ context.Context, url string) error {
	s.url = url
	s.obs.OnNavigate(url)
	s.obs.OnConsole("loaded " + url)

	return nil
}

func (s *echoSession) HasElement(context.Context, string) (bool, error) { return false, nil }

func (s *echoSession) WaitFor(context.Context, string) error { return nil }

func (s *echoSession) Snapshot(context.Context) (capture.Snapshot, error) {
	return capture.Snapshot{FinalURL: s.url}, nil
}

func (s *echoSession) Screenshot(context.Context) ([]byte, error) { return nil, nil }

func (s *echoSession) Close() error { return nil }
