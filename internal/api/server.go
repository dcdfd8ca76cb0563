// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the PhishVault service.
package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"phishvault/internal/api/handler/v1handler"
	"phishvault/internal/config"
	"phishvault/pkg/controller"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

//go:embed specs/v1.yaml
var v1Spec []byte

// timeoutBody is sent when a request exceeds RequestTimeout.
const timeoutBody = `{"code":"TIMEOUT","message":"request timed out"}`

const pprofPrefix = "/debug/pprof/"

// Options configures NewServer. Zero durations leave the net/http defaults.
type Options struct {
	SecHandlerOptions *v1handler.SecHandlerOptions

	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	// RequestTimeout bounds each handler, answering TIMEOUT when exceeded.
	// Inspections must fit inside it.
	RequestTimeout time.Duration
	MaxHeaderBytes int
	MetricsPath    string
	// CORSOrigin is the allowed cross-origin; empty allows any origin.
	CORSOrigin string

	// RateLimitEnabled turns on per-client rate limiting.
	RateLimitEnabled bool
	// RateLimitPerSecond and RateLimitBurst size each client's token bucket.
	RateLimitPerSecond float64
	RateLimitBurst     int
	// RateLimitTTL is how long an idle client is remembered.
	RateLimitTTL time.Duration

	// ScreenshotDir is served at /screenshots/ when set.
	ScreenshotDir string
	// Pprof exposes the profiling endpoints under /debug/pprof/.
	Pprof bool
}

// NewOptions reads the http, jwt and screenshots sections of cfg.
func NewOptions(cfg *config.Config) Options {
	opts := Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		CORSOrigin:        cfg.HTTP.CORSOrigin,

		RateLimitEnabled:   cfg.HTTP.RateLimit.Enabled,
		RateLimitPerSecond: cfg.HTTP.RateLimit.PerSecond,
		RateLimitBurst:     cfg.HTTP.RateLimit.Burst,
		RateLimitTTL:       cfg.HTTP.RateLimit.TTL,

		Pprof: cfg.HTTP.Pprof,
	}
	if cfg.Screenshots.Enabled {
		opts.ScreenshotDir = cfg.Screenshots.Dir
	}

	return opts
}

// Deps are the services behind the v1 routes.
type Deps struct {
	v1handler.Deps
}

// NewServer builds the HTTP server. Requests pass, outermost first, through
// the request timeout, the access log, CORS and the per-client rate limit
// before reaching the mux, which serves:
//   - metrics at MetricsPath
//   - the OpenAPI document at /specs/v1.yaml and Swagger UI at /v1/docs/
//   - the authenticated /v1/ routes
//   - stored screenshots under /screenshots/
//   - pprof under /debug/pprof/ when enabled
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	mux.Handle(opts.MetricsPath, promhttp.Handler())

	mux.HandleFunc("GET /specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	mux.Handle("/v1/docs/", v5emb.New(
		"PhishVault",
		"/specs/v1.yaml",
		"/v1/docs/",
	))
	secHandler, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
	if err != nil {
		return nil, fmt.Errorf("could not create sec handler: %w", err)
	}
	v1handler.New(deps.Deps).Register(mux, secHandler)

	if opts.ScreenshotDir != "" {
		mux.Handle("GET /screenshots/",
			http.StripPrefix("/screenshots/", http.FileServer(http.Dir(opts.ScreenshotDir))))
	}

	if opts.Pprof {
		mux.Handle(pprofPrefix, controller.Pprof(pprofPrefix))
	}

	var limiter *controller.RateLimiter
	if opts.RateLimitEnabled {
		limiter = controller.NewRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst, opts.RateLimitTTL)
	}
	handler := controller.WithRateLimit(limiter, mux)

	handler = controller.WithCORS(opts.CORSOrigin, handler)

	handler = controller.WithLogger(handler)

	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, timeoutBody)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}
