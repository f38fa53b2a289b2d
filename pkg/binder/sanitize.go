package binder

import "regexp"

var (
	scriptTagRe = regexp.MustCompile(`(?i)<script\b[^>]*>.*?</script>`)
	eventAttrRe = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsProtoRe   = regexp.MustCompile(`(?i)javascript\s*:`)
)

// SanitizeTemplate scrubs an externally supplied container template of
// script-like constructs: script tags, inline event handlers, and
// javascript: protocols. Dynamic message text never goes through here —
// it is always inserted as plain text via SetText, never parsed as
// markup.
func SanitizeTemplate(tpl string) string {
	out := scriptTagRe.ReplaceAllString(tpl, "")
	out = eventAttrRe.ReplaceAllString(out, "")
	out = jsProtoRe.ReplaceAllString(out, "")
	return out
}
