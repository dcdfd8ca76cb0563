package scoring

import (
	"fmt"
	"net/netip"
	"net/url"
	"phishvault/pkg/domain"
	"strconv"
	"strings"
)

// Contribution is what a rule adds to the score when it fires.
type Contribution struct {
	Weight int
	Note   string
}

// Rule is one independent detection rule. Evaluate returns zero or more
// contributions; rules never see each other's output.
type Rule interface {
	ID() RuleID
	Evaluate(in *Input) []Contribution
}

// Input is a bundle prepared for rule evaluation. The markup is parsed and
// case-folded once and shared by every rule.
type Input struct {
	Bundle domain.SignalBundle

	folded string
	markup markup
}

// NewInput prepares b for evaluation.
func NewInput(b domain.SignalBundle) *Input {
	b = b.Normalized()

	return &Input{
		Bundle: b,
		folded: strings.ToLower(b.RenderedHTML),
		markup: parseMarkup(b.RenderedHTML),
	}
}

// DefaultRules returns the canonical rule list in evaluation order, weighted
// by t.
func DefaultRules(t Table) []Rule {
	return []Rule{
		redirectsRule{weight: t.Weight(RuleRedirects), max: t.MaxRedirects},
		jsLogsRule{weight: t.Weight(RuleJSLogs)},
		cookiesRule{weight: t.Weight(RuleCookies), max: t.MaxCookies},
		passwordFieldRule{weight: t.Weight(RulePasswordField)},
		credentialFieldRule{weight: t.Weight(RuleCredentialField)},
		hiddenAuthFieldRule{weight: t.Weight(RuleHiddenAuthField)},
		externalFormActionRule{weight: t.Weight(RuleExternalFormAction)},
		insecureFormActionRule{weight: t.Weight(RuleInsecureFormAction)},
		keywordRule{weight: t.Weight(RulePhishingKeyword)},
		fingerprintingRule{weight: t.Weight(RuleFingerprinting)},
		scriptSourceRule{weight: t.Weight(RuleSuspiciousScript)},
		brandRule{weight: t.Weight(RuleBrandImpersonation)},
		antiAnalysisRule{weight: t.Weight(RuleAntiAnalysis)},
		delayedExecutionRule{weight: t.Weight(RuleDelayedExecution), minDelay: t.MinDelayMillis},
	}
}

func fire(weight int, note string) []Contribution {
	return []Contribution{{Weight: weight, Note: note}}
}

type redirectsRule struct{ weight, max int }

func (r redirectsRule) ID() RuleID { return RuleRedirects }

func (r redirectsRule) Evaluate(in *Input) []Contribution {
	if len(in.Bundle.RedirectChain) > r.max {
		return fire(r.weight, "Multiple redirects")
	}

	return nil
}

type jsLogsRule struct{ weight int }

func (r jsLogsRule) ID() RuleID { return RuleJSLogs }

func (r jsLogsRule) Evaluate(in *Input) []Contribution {
	for _, log := range in.Bundle.ConsoleLogs {
		for _, token := range suspiciousLogTokens {
			if strings.Contains(log, token) {
				return fire(r.weight, "Suspicious JavaScript behavior detected in logs")
			}
		}
	}

	return nil
}

type cookiesRule struct{ weight, max int }

func (r cookiesRule) ID() RuleID { return RuleCookies }

func (r cookiesRule) Evaluate(in *Input) []Contribution {
	if len(in.Bundle.Cookies) > r.max {
		return fire(r.weight, "Excessive number of cookies set")
	}

	return nil
}

type passwordFieldRule struct{ weight int }

func (r passwordFieldRule) ID() RuleID { return RulePasswordField }

func (r passwordFieldRule) Evaluate(in *Input) []Contribution {
	for _, input := range in.markup.inputs {
		if strings.EqualFold(strings.TrimSpace(input.typ), "password") {
			return fire(r.weight, "Password field found")
		}
	}

	return nil
}

type credentialFieldRule struct{ weight int }

func (r credentialFieldRule) ID() RuleID { return RuleCredentialField }

func (r credentialFieldRule) Evaluate(in *Input) []Contribution {
	for _, input := range in.markup.inputs {
		if containsAny(strings.ToLower(input.name), credentialNames) {
			return fire(r.weight, "Credential input field found")
		}
	}

	return nil
}

type hiddenAuthFieldRule struct{ weight int }

func (r hiddenAuthFieldRule) ID() RuleID { return RuleHiddenAuthField }

func (r hiddenAuthFieldRule) Evaluate(in *Input) []Contribution {
	for _, input := range in.markup.inputs {
		if !strings.EqualFold(strings.TrimSpace(input.typ), "hidden") {
			continue
		}
		if containsAny(strings.ToLower(input.name), hiddenAuthNames) {
			return fire(r.weight, "Hidden auth-related fields detected")
		}
	}

	return nil
}

// firstFormAction returns the action of the first form, trimmed and parsed.
// A form without an action, or whose action does not parse, has none; both
// form action rules then stay silent.
func firstFormAction(in *Input) (string, *url.URL, bool) {
	if len(in.markup.forms) == 0 || !in.markup.forms[0].hasAction {
		return "", nil, false
	}

	action := strings.TrimSpace(in.markup.forms[0].action)
	ref, err := url.Parse(action)
	if err != nil {
		return "", nil, false
	}

	return action, ref, true
}

type externalFormActionRule struct{ weight int }

func (r externalFormActionRule) ID() RuleID { return RuleExternalFormAction }

// Evaluate resolves the first form's action against the final URL. Anything
// that does not parse, or resolves to no host at all, is ignored.
func (r externalFormActionRule) Evaluate(in *Input) []Contribution {
	_, ref, ok := firstFormAction(in)
	if !ok {
		return nil
	}

	base, err := url.Parse(in.Bundle.FinalURL)
	if err != nil {
		return nil
	}

	formDomain := base.ResolveReference(ref).Hostname()
	if formDomain == "" || strings.EqualFold(formDomain, base.Hostname()) {
		return nil
	}

	return fire(r.weight, "Form action points to external domain: "+formDomain)
}

type insecureFormActionRule struct{ weight int }

func (r insecureFormActionRule) ID() RuleID { return RuleInsecureFormAction }

func (r insecureFormActionRule) Evaluate(in *Input) []Contribution {
	action, _, ok := firstFormAction(in)
	if ok && strings.HasPrefix(action, "http://") {
		return fire(r.weight, "Form submission is not secure (HTTP)")
	}

	return nil
}

type keywordRule struct{ weight int }

func (r keywordRule) ID() RuleID { return RulePhishingKeyword }

func (r keywordRule) Evaluate(in *Input) []Contribution {
	var out []Contribution
	for _, word := range phishingKeywords {
		if keywordRes[word].MatchString(in.folded) {
			out = append(out, Contribution{Weight: r.weight, Note: fmt.Sprintf("Suspicious keyword found: %q", word)})
		}
	}

	return out
}

type fingerprintingRule struct{ weight int }

func (r fingerprintingRule) ID() RuleID { return RuleFingerprinting }

func (r fingerprintingRule) Evaluate(in *Input) []Contribution {
	if containsAny(in.Bundle.RenderedHTML, fingerprintingTokens) {
		return fire(r.weight, "Potential fingerprinting or bot detection scripts found")
	}

	return nil
}

type scriptSourceRule struct{ weight int }

func (r scriptSourceRule) ID() RuleID { return RuleSuspiciousScript }

// Evaluate adds one contribution per script tag whose source matches a
// suspicious host pattern.
func (r scriptSourceRule) Evaluate(in *Input) []Contribution {
	var out []Contribution
	for _, src := range in.markup.scripts {
		if suspiciousScriptSource(src) {
			out = append(out, Contribution{Weight: r.weight, Note: "Suspicious external JS source found"})
		}
	}

	return out
}

// suspiciousScriptSource matches TLD and host tokens as substrings of the
// case-folded source, so "evil.xyz." and "cdn.tk.example.com" both count.
// Only the bare IPv4 check needs the parsed host.
func suspiciousScriptSource(src string) bool {
	src = strings.ToLower(strings.TrimSpace(src))
	if src == "" {
		return false
	}
	if containsAny(src, suspiciousTLDs) || containsAny(src, suspiciousHosts) {
		return true
	}

	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(strings.TrimSuffix(u.Hostname(), "."))

	return err == nil && addr.Is4()
}

type brandRule struct{ weight int }

func (r brandRule) ID() RuleID { return RuleBrandImpersonation }

func (r brandRule) Evaluate(in *Input) []Contribution {
	var out []Contribution
	for _, brand := range brands {
		if strings.Contains(in.folded, brand) {
			out = append(out, Contribution{Weight: r.weight, Note: fmt.Sprintf("Brand impersonation indicator: %q", brand)})
		}
	}

	return out
}

type antiAnalysisRule struct{ weight int }

func (r antiAnalysisRule) ID() RuleID { return RuleAntiAnalysis }

func (r antiAnalysisRule) Evaluate(in *Input) []Contribution {
	if antiAnalysisRe.MatchString(in.Bundle.RenderedHTML) {
		return fire(r.weight, "Anti-analysis or infinite loop behavior detected")
	}

	return nil
}

type delayedExecutionRule struct{ weight, minDelay int }

func (r delayedExecutionRule) ID() RuleID { return RuleDelayedExecution }

// Evaluate looks for a setTimeout whose delay is an integer literal of at
// least minDelay milliseconds. The literal is compared by decimal value, not
// by digit count: 00100 is 100ms and does not fire, while 10000 does.
func (r delayedExecutionRule) Evaluate(in *Input) []Contribution {
	for _, delay := range setTimeoutDelays(in.Bundle.RenderedHTML) {
		if !isDigits(delay) {
			continue
		}
		// literals too long for an int are long enough anyway
		ms, err := strconv.Atoi(delay)
		if err != nil || ms >= r.minDelay {
			return fire(r.weight, "Suspicious delayed execution script detected")
		}
	}

	return nil
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}

	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
