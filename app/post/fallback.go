package post

import "strings"

const upperhex = "0123456789ABCDEF"

// FallbackURL turns the GraphQL endpoint into the public URL of path by
// replacing the first "/graphql/" segment with "/" and appending the
// URI-encoded path.
func FallbackURL(endpoint, path string) string {
	return strings.Replace(endpoint, "/graphql/", "/", 1) + EncodeURI(path)
}

// EncodeURI percent-encodes s the way browsers encode a full URI: reserved
// and unreserved characters are kept, every other byte is escaped.
func EncodeURI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepInURI(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepInURI(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(";,/?:@&=+$-_.!~*'()#", c) >= 0
}
