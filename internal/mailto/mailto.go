// Package mailto builds mail-link targets.
package mailto

import (
	"net/url"
	"strings"
)

// Build returns a mailto URI for to with the subject and body encoded as
// query parameters. Encoding follows encodeURIComponent: spaces become %20,
// never "+", which mail clients would show literally.
func Build(to, subject, body string) string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(to)
	b.WriteString("?subject=")
	b.WriteString(Escape(subject))
	b.WriteString("&body=")
	b.WriteString(Escape(body))
	return b.String()
}

// Escape percent-encodes s for use as a mailto header value.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
