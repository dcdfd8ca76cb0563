package scanner

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrMissingHost is returned for URLs without a host.
	ErrMissingHost = errors.New("URL has no host")
	// ErrInvalidHost is returned for hosts that are not valid domain names.
	ErrInvalidHost = errors.New("invalid URL host")
)

var defaultPorts = map[string]string{"http": "80", "https": "443"} //nolint: gochecknoglobals

// NormalizeURL returns the canonical form of an absolute http or https URL,
// used both as the address handed to the browser and as the key for
// LatestByURL:
//   - scheme and host lowercased; internationalized hosts in punycode
//   - trailing dot of the host and the scheme's default port dropped
//   - path cleaned, "/" when empty, no trailing slash otherwise
//   - query parameters sorted by key then value
//   - fragment removed
//
// Userinfo is kept, since "https://bank.example@evil.example/" must be
// scanned as the browser would open it.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("could not parse URL: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[u.Scheme]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return "", err
	}
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Path = normalizePath(u.Path)
	u.RawPath = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			slices.Sort(q[k])
		}
		// Encode sorts by key
		u.RawQuery = q.Encode()
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", ErrMissingHost
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidHost, err)
		}

		return ascii, nil
	}

	return strings.ToLower(host), nil
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}

	cleaned := path.Clean("/" + p)
	if cleaned != "/" {
		cleaned = strings.TrimRight(cleaned, "/")
	}

	return cleaned
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}

	return true
}
