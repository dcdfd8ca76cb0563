package scoring

import "regexp"

//nolint: gochecknoglobals
var (
	// suspiciousLogTokens are matched as case-sensitive substrings of console messages.
	suspiciousLogTokens = []string{"eval", "atob", "obfuscate", "decodeURIComponent"}

	// phishingKeywords are matched as whole words against the case-folded markup.
	phishingKeywords = []string{"login", "sign in", "verify", "account", "reset password", "update info", "confirm"}

	// fingerprintingTokens are matched as case-sensitive substrings of the markup.
	fingerprintingTokens = []string{
		"navigator.userAgent",
		"navigator.plugins",
		"screen.width",
		"navigator.webdriver",
		"Intl.DateTimeFormat",
		"timezoneOffset",
	}

	// brands are matched as case-insensitive substrings of the markup.
	brands = []string{"netflix", "paypal", "microsoft", "amazon", "bank", "apple", "google"}

	// credentialNames and hiddenAuthNames are matched as case-insensitive
	// substrings of an input's name attribute.
	credentialNames = []string{"username", "email", "user"}
	hiddenAuthNames = []string{"token", "auth", "csrf"}

	// suspiciousTLDs and suspiciousHosts are matched as substrings of the
	// case-folded script source.
	suspiciousTLDs  = []string{".xyz", ".tk", ".ru", ".pw", ".click"}
	suspiciousHosts = []string{"dropbox", "pastebin", "googledrive"}

	antiAnalysisRe = regexp.MustCompile(`debugger\s*;|while\s*\(\s*true\s*\)`)

	keywordRes = compileKeywords(phishingKeywords)
)

func compileKeywords(words []string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(words))
	for _, w := range words {
		out[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}

	return out
}
