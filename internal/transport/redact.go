package transport

import (
	"strings"
	"unicode"
)

const (
	redactedPrefix  = 10
	redactedSuffix  = 4
	minSecretLength = 20
)

// RedactSecret returns a log-safe version of a bearer token, webhook
// URL, or similar secret: the first 10 and last 4 characters survive,
// the middle is collapsed. Short values are fully masked rather than
// partially shown.
func RedactSecret(secret string) string {
	if len(secret) > minSecretLength {
		return secret[:redactedPrefix] + "..." + secret[len(secret)-redactedSuffix:]
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		return '*'
	}, secret)
}
