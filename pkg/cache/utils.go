package cache

import "strings"

// GenerateKey joins a prefix and identifier parts with ":".
func GenerateKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}
