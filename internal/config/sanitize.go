package config

import "strings"

var schemePrefixes = []string{"http://", "https://"}

// SanitizeHost turns user input into a bare host. Leading "http://" and
// "https://" prefixes are removed (case-sensitive, repeatedly) and
// surrounding whitespace is trimmed. Paths and trailing slashes are kept.
//
// SanitizeHost is idempotent.
func SanitizeHost(raw string) string {
	host := strings.TrimSpace(raw)
	for {
		stripped := false
		for _, prefix := range schemePrefixes {
			if strings.HasPrefix(host, prefix) {
				host = strings.TrimSpace(strings.TrimPrefix(host, prefix))
				stripped = true
			}
		}
		if !stripped {
			return host
		}
	}
}
