package identity

import (
	"mime"
	"strings"
	"unicode/utf8"
)

// addressSpecials are characters that force the display name to be quoted.
const addressSpecials = `()<>@,;:\".[]`

// FormatAddress renders a mailbox as "Name <email>". ASCII names containing
// address specials are quoted, non-ASCII names become an RFC 2047 utf-8
// encoded-word, and an empty name yields the bare address.
func FormatAddress(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	switch {
	case !isASCII(name):
		name = mime.BEncoding.Encode("utf-8", name)
	case strings.ContainsAny(name, addressSpecials):
		name = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name) + `"`
	}
	return name + " <" + email + ">"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
