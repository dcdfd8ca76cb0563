package domain

import (
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/spaolacci/murmur3"
)

// Cookie is a single cookie observed in the browsing context after load.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// SignalBundle is everything the capture agent observed for one URL. It is
// produced once per capture and never mutated afterwards. Collections are
// always non-nil, even when the capture failed.
type SignalBundle struct {
	// RequestedURL is the URL handed to the capture agent.
	RequestedURL string `json:"requestedUrl"`
	// FinalURL is the URL once all redirects settled. It equals RequestedURL
	// when navigation failed.
	FinalURL string `json:"finalUrl"`
	// RenderedHTML is the serialized document after load; empty on failure.
	RenderedHTML string `json:"renderedHtml"`
	// ConsoleLogs holds console messages in emission order.
	ConsoleLogs []string `json:"consoleLogs"`
	// RedirectChain holds distinct URLs in navigation order.
	RedirectChain []string `json:"redirectChain"`
	// Cookies holds the cookies visible in the browsing context.
	Cookies []Cookie `json:"cookies"`
	// ScreenshotRef is an opaque reference to the captured screenshot.
	ScreenshotRef string `json:"screenshotRef,omitempty"`
	// CaptureErrors holds diagnostics such as timeouts; empty on a clean capture.
	CaptureErrors []string `json:"captureErrors"`
}

// NewSignalBundle returns a bundle for the given URL with every collection
// initialized and FinalURL defaulting to the requested URL.
func NewSignalBundle(requestedURL string) SignalBundle {
	return SignalBundle{
		RequestedURL:  requestedURL,
		FinalURL:      requestedURL,
		ConsoleLogs:   []string{},
		RedirectChain: []string{},
		Cookies:       []Cookie{},
		CaptureErrors: []string{},
	}
}

// Normalized returns a copy of the bundle where every nil collection is
// replaced by an empty one and an empty FinalURL falls back to RequestedURL.
func (b SignalBundle) Normalized() SignalBundle {
	if b.FinalURL == "" {
		b.FinalURL = b.RequestedURL
	}
	if b.ConsoleLogs == nil {
		b.ConsoleLogs = []string{}
	}
	if b.RedirectChain == nil {
		b.RedirectChain = []string{}
	}
	if b.Cookies == nil {
		b.Cookies = []Cookie{}
	}
	if b.CaptureErrors == nil {
		b.CaptureErrors = []string{}
	}

	return b
}

// Degraded reports whether the capture recorded any diagnostic.
func (b SignalBundle) Degraded() bool {
	return len(b.CaptureErrors) > 0
}

// Fingerprint returns a stable 128-bit murmur3 digest of the scored signals.
// Two bundles with the same fingerprint always produce the same ScoreResult.
// Cookies are hashed in sorted order since their order carries no meaning.
func (b SignalBundle) Fingerprint() string {
	h := murmur3.New128()

	write := func(s string) {
		_, _ = h.Write([]byte(strconv.Itoa(len(s))))
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(s))
	}

	write(b.FinalURL)
	write(b.RenderedHTML)
	for _, l := range b.ConsoleLogs {
		write(l)
	}
	_, _ = h.Write([]byte{0})
	for _, r := range b.RedirectChain {
		write(r)
	}
	_, _ = h.Write([]byte{0})

	cookies := make([]string, 0, len(b.Cookies))
	for _, c := range b.Cookies {
		cookies = append(cookies, c.Domain+"\x00"+c.Name+"\x00"+c.Value)
	}
	sort.Strings(cookies)
	for _, c := range cookies {
		write(c)
	}

	return hex.EncodeToString(h.Sum(nil))
}
