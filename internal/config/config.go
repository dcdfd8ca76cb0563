package config

import (
	"fmt"
	"time"

	"phishvault/pkg/scoring"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, database connection,
// browser engine, scoring table and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" env-default:"" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request.
		// Synchronous inspections run a full capture, so keep it above the browser timeouts.
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"45s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// CORSOrigin is the allowed origin; empty allows any origin
		CORSOrigin string `env:"HTTP_CORS_ORIGIN" env-default:"" yaml:"corsOrigin"`
		// Pprof exposes /debug/pprof/ on the API listener
		Pprof bool `env:"HTTP_PPROF" env-default:"false" yaml:"pprof"`

		// RateLimit throttles requests per client IP
		RateLimit struct {
			// Enabled turns the limiter on
			Enabled bool `env:"HTTP_RATE_LIMIT_ENABLED" env-default:"true" yaml:"enabled"`
			// PerSecond is the sustained number of requests allowed per second
			PerSecond float64 `env:"HTTP_RATE_LIMIT_PER_SECOND" env-default:"5" yaml:"perSecond"`
			// Burst is the number of requests allowed at once
			Burst int `env:"HTTP_RATE_LIMIT_BURST" env-default:"20" yaml:"burst"`
			// TTL is how long an idle client is remembered
			TTL time.Duration `env:"HTTP_RATE_LIMIT_TTL" env-default:"10m" yaml:"ttl"`
		} `yaml:"rateLimit"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"phishvault" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// JWT holds the RS256 key pair. Only the public key is needed to serve the API.
	JWT struct {
		// PublicKey is the PEM encoded key used to verify bearer tokens
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey is the PEM encoded key used by the jwt command to sign tokens
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
		// Issuer is set on signed tokens and required on verified ones; empty skips the check
		Issuer string `env:"JWT_ISSUER" env-default:"phishvault" yaml:"issuer"`
	} `yaml:"jwt"`

	// Browser configures the headless browser engine and capture timeouts
	Browser struct {
		// ExecPath points to the Chrome binary; empty lets chromedp look it up
		ExecPath string `env:"BROWSER_EXEC_PATH" env-default:"" yaml:"execPath"`
		// Headless runs the browser without a window
		Headless bool `env:"BROWSER_HEADLESS" env-default:"true" yaml:"headless"`
		// NoSandbox disables the Chrome sandbox, required in most containers
		NoSandbox bool `env:"BROWSER_NO_SANDBOX" env-default:"false" yaml:"noSandbox"`
		// Proxy routes browser traffic through the given proxy server
		Proxy string `env:"BROWSER_PROXY" env-default:"" yaml:"proxy"`
		// UserAgent overrides the browser user agent
		UserAgent string `env:"BROWSER_USER_AGENT" env-default:"" yaml:"userAgent"`
		// WindowWidth and WindowHeight size the viewport used for screenshots
		WindowWidth  int `env:"BROWSER_WINDOW_WIDTH" env-default:"1366" yaml:"windowWidth"`
		WindowHeight int `env:"BROWSER_WINDOW_HEIGHT" env-default:"768" yaml:"windowHeight"`
		// NavigationTimeout bounds loading the target document
		NavigationTimeout time.Duration `env:"BROWSER_NAVIGATION_TIMEOUT" env-default:"10s" yaml:"navigationTimeout"`
		// FormWaitTimeout bounds waiting for a form to appear after load
		FormWaitTimeout time.Duration `env:"BROWSER_FORM_WAIT_TIMEOUT" env-default:"5s" yaml:"formWaitTimeout"`
		// SnapshotTimeout bounds reading markup, cookies and the screenshot
		SnapshotTimeout time.Duration `env:"BROWSER_SNAPSHOT_TIMEOUT" env-default:"10s" yaml:"snapshotTimeout"`
	} `yaml:"browser"`

	// Screenshots configures where page screenshots are written
	Screenshots struct {
		// Enabled turns screenshot capture on
		Enabled bool `env:"SCREENSHOTS_ENABLED" env-default:"true" yaml:"enabled"`
		// Dir is the directory screenshots are written to
		Dir string `env:"SCREENSHOTS_DIR" env-default:"screenshots" yaml:"dir"`
		// URLPrefix is prepended to the file name to build the stored reference
		URLPrefix string `env:"SCREENSHOTS_URL_PREFIX" env-default:"/screenshots/" yaml:"urlPrefix"`
	} `yaml:"screenshots"`

	// Scanner configures scan processing
	Scanner struct {
		// MaxAttempts is how many times a scan is tried before it is marked failed
		MaxAttempts int `env:"SCANNER_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
	} `yaml:"scanner"`

	// Worker configures the background job runner
	Worker struct {
		// MaxWorkers is the number of scans processed concurrently, each one holding a browser context
		MaxWorkers int `env:"WORKER_MAX_WORKERS" env-default:"4" yaml:"maxWorkers"`
		// CapturesPerSecond paces captures started by this process; zero disables pacing
		CapturesPerSecond float64 `env:"WORKER_CAPTURES_PER_SECOND" env-default:"0" yaml:"capturesPerSecond"`
	} `yaml:"worker"`

	// Scoring overrides the default rule weights and thresholds; zero values keep the defaults
	Scoring struct {
		// Weights maps rule ids to weights
		Weights map[string]int `env:"SCORING_WEIGHTS" env-separator:"," yaml:"weights"`
		// SuspiciousAt is the lowest score labeled Suspicious
		SuspiciousAt int `env:"SCORING_SUSPICIOUS_AT" yaml:"suspiciousAt"`
		// MaliciousAt is the lowest score labeled Malicious
		MaliciousAt int `env:"SCORING_MALICIOUS_AT" yaml:"maliciousAt"`
		// MaxRedirects is the redirect chain length tolerated before it counts
		MaxRedirects int `env:"SCORING_MAX_REDIRECTS" yaml:"maxRedirects"`
		// MaxCookies is the cookie count tolerated before it counts
		MaxCookies int `env:"SCORING_MAX_COOKIES" yaml:"maxCookies"`
	} `yaml:"scoring"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"30s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// ScoringTable builds the scoring table from the defaults and the configured
// overrides. The result is validated.
func (c *Config) ScoringTable() (scoring.Table, error) {
	table, err := scoring.DefaultTable().WithWeights(c.Scoring.Weights)
	if err != nil {
		return scoring.Table{}, fmt.Errorf("invalid scoring weights: %w", err)
	}

	if c.Scoring.SuspiciousAt > 0 {
		table.SuspiciousAt = c.Scoring.SuspiciousAt
	}
	if c.Scoring.MaliciousAt > 0 {
		table.MaliciousAt = c.Scoring.MaliciousAt
	}
	if c.Scoring.MaxRedirects > 0 {
		table.MaxRedirects = c.Scoring.MaxRedirects
	}
	if c.Scoring.MaxCookies > 0 {
		table.MaxCookies = c.Scoring.MaxCookies
	}

	if err := table.Validate(); err != nil {
		return scoring.Table{}, fmt.Errorf("invalid scoring table: %w", err)
	}

	return table, nil
}
