package dnscheck

import "strings"

// NormalizeHost canonicalizes a host name for comparison: lower-cased,
// surrounding whitespace removed, exactly one trailing dot. Host names are
// case-insensitive per RFC 1035, so "MX1.Example.NET" and "mx1.example.net."
// normalize to the same value.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	return strings.TrimRight(host, ".") + "."
}

// NormalizeTXT canonicalizes TXT record content: surrounding quotes and
// whitespace removed, internal runs of whitespace collapsed to a single
// space. Case is preserved since TXT values carry case-sensitive tokens.
func NormalizeTXT(value string) string {
	value = strings.Trim(strings.TrimSpace(value), "\"")
	return strings.Join(strings.Fields(value), " ")
}
