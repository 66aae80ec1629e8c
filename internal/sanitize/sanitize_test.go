package sanitize

import (
	"strings"
	"testing"

	"blobby/internal/config"

	"github.com/stretchr/testify/assert"
)

func defaultPolicy() *Policy {
	return New(config.DefaultAllowedTags(), config.DefaultAllowedAttributes())
}

func TestSanitize_StripsScriptButKeepsText(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	out := p.Sanitize(`<script>alert(1)</script>Hello`)
	assert.Equal(t, "Hello", out)
	assert.NotContains(t, out, "script")
}

func TestSanitize_StripsDisallowedTagKeepsInnerText(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	out := p.Sanitize(`<p>fine</p><marquee>still here</marquee>`)
	assert.Contains(t, out, "<p>fine</p>")
	assert.Contains(t, out, "still here")
	assert.NotContains(t, out, "marquee")
}

func TestSanitize_StripsDisallowedAttributes(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	out := p.Sanitize(`<p onclick="alert(1)" class="lede">text</p>`)
	assert.NotContains(t, out, "onclick")
	// class is allowed globally via the "*" key
	assert.Contains(t, out, `class="lede"`)
}

func TestSanitize_DropsJavascriptHrefs(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	out := p.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript:")

	out = p.Sanitize(`<a href="https://example.com">x</a>`)
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestSanitize_Idempotent(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	inputs := []string{
		`<p>plain</p>`,
		`<script>alert(1)</script>Hello`,
		`<div class="a"><img src="/x.png" onerror="hack()"><b>bold</b></div>`,
		`broken <b>markup`,
		strings.Repeat(`<i>nest`, 40),
	}
	for _, in := range inputs {
		once := p.Sanitize(in)
		twice := p.Sanitize(once)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
	}
}

func TestSanitize_MalformedInputNeverPanics(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	for _, in := range []string{"", "<", "<<>>", "<a href=", "\x00\x01"} {
		assert.NotPanics(t, func() { p.Sanitize(in) })
	}
}

func TestSanitize_RichCommentSurvives(t *testing.T) {
	t.Parallel()
	p := defaultPolicy()

	in := `<p>I <strong>loved</strong> this post.<br>See <a href="https://go.dev">go.dev</a></p>`
	out := p.Sanitize(in)
	assert.Contains(t, out, "<strong>loved</strong>")
	assert.Contains(t, out, "go.dev")
}
