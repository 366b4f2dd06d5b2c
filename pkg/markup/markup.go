// Package markup provides the small amount of HTML inspection the
// dispatcher needs over rendered component markup.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// FindFirstAttribute scans markup for the first element carrying the
// named attribute and returns its value. The second return is false
// when no element carries the attribute.
func FindFirstAttribute(markup, attr string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == attr {
					return string(val), true
				}
			}
		}
	}
}
