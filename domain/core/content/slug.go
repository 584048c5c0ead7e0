package content

import "strings"

// Slug lowers the input, collapses every run of non-alphanumeric characters
// to a single hyphen, and strips leading and trailing hyphens. It mirrors
// the id generation of the reader frontend exactly; both sides must agree
// or stored anchors become unresolvable.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
