package recon

import (
	"strings"

	"github.com/vulnverified/nexus/internal/engine"
)

// Evidence is the normalized view of a response that signatures match against.
type Evidence struct {
	resp    *engine.Response
	body    string            // lowercased
	cookies map[string]string // lowercased name -> lowercased value
}

func newEvidence(resp *engine.Response) *Evidence {
	ev := &Evidence{
		resp:    resp,
		body:    strings.ToLower(resp.Body),
		cookies: make(map[string]string, len(resp.Cookies)),
	}
	for name, value := range resp.Cookies {
		ev.cookies[strings.ToLower(name)] = strings.ToLower(value)
	}
	return ev
}

// HeaderContains reports whether the named header contains substr, ignoring case.
func (e *Evidence) HeaderContains(name, substr string) bool {
	return strings.Contains(strings.ToLower(e.resp.HeaderValue(name)), strings.ToLower(substr))
}

// BodyContains reports whether the body contains substr, ignoring case.
func (e *Evidence) BodyContains(substr string) bool {
	return strings.Contains(e.body, strings.ToLower(substr))
}

// CookieContains reports whether any cookie name or value contains substr,
// ignoring case.
func (e *Evidence) CookieContains(substr string) bool {
	substr = strings.ToLower(substr)
	for name, value := range e.cookies {
		if strings.Contains(name, substr) || strings.Contains(value, substr) {
			return true
		}
	}
	return false
}

// Signature is a named predicate over a response.
type Signature struct {
	Label string
	Match func(*Evidence) bool
}

// Signatures is evaluated in order; every matching label is reported.
var Signatures = []Signature{
	{Label: "WordPress", Match: func(e *Evidence) bool { return e.BodyContains("wp-content") }},
	{Label: "Laravel", Match: func(e *Evidence) bool { return e.CookieContains("laravel") }},
	{Label: "Django", Match: func(e *Evidence) bool { return e.CookieContains("csrftoken") }},
	{Label: "React", Match: func(e *Evidence) bool { return e.BodyContains("react") }},
	{Label: "Nginx", Match: func(e *Evidence) bool { return e.HeaderContains("Server", "nginx") }},
	{Label: "Apache", Match: func(e *Evidence) bool { return e.HeaderContains("Server", "apache") }},
	{Label: "Cloudflare", Match: func(e *Evidence) bool { return e.HeaderContains("Server", "cloudflare") }},
	{Label: "PHP", Match: func(e *Evidence) bool { return e.HeaderContains("X-Powered-By", "php") }},
}

// Fingerprinter implements engine.TechFingerprinter.
type Fingerprinter struct {
	Signatures []Signature // defaults to Signatures
}

// Fingerprint returns the labels of every matching signature in declared
// order, or engine.UnknownStack when none match.
func (f *Fingerprinter) Fingerprint(resp *engine.Response) []string {
	if resp == nil {
		return []string{engine.UnknownStack}
	}
	sigs := f.Signatures
	if sigs == nil {
		sigs = Signatures
	}

	ev := newEvidence(resp)
	var labels []string
	for _, sig := range sigs {
		if sig.Match(ev) {
			labels = append(labels, sig.Label)
		}
	}

	if len(labels) == 0 {
		return []string{engine.UnknownStack}
	}
	return labels
}
