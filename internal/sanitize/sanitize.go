// Package sanitize strips user-authored rich text down to a configured
// allow-list of HTML tags and attributes before it is persisted.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Policy sanitizes HTML against an allow-list. Disallowed tags are
// stripped while their inner text is kept; disallowed attributes are
// dropped from otherwise-allowed tags. Sanitization is idempotent and
// never fails: malformed input degrades to its sanitized form.
//
// The zero value is not usable; construct with New. A Policy is safe for
// concurrent use (the underlying bluemonday.Policy is).
type Policy struct {
	policy *bluemonday.Policy
}

// New builds a Policy from a tag allow-list and a per-tag attribute
// allow-list. The attribute map supports a "*" key whose attributes are
// permitted on every allowed tag.
func New(allowedTags []string, allowedAttributes map[string][]string) *Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(allowedTags...)

	for tag, attrs := range allowedAttributes {
		if len(attrs) == 0 {
			continue
		}
		if tag == "*" {
			p.AllowAttrs(attrs...).Globally()
			continue
		}
		p.AllowAttrs(attrs...).OnElements(tag)
	}

	// href/src values survive only with a recognised scheme; everything
	// else (javascript:, data:, vbscript:) is dropped with the attribute.
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireNoFollowOnLinks(true)

	return &Policy{policy: p}
}

// Sanitize returns raw with all markup outside the allow-list removed.
func (p *Policy) Sanitize(raw string) string {
	return p.policy.Sanitize(raw)
}
