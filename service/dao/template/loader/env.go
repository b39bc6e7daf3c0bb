package loader

import (
	"os"
	"strings"
)

const envPrefix = "${env."

// expandEnv replaces ${env.NAME} with the value of environment variable NAME.
// Expressions with a name outside [A-Za-z0-9_] or without a closing brace are
// kept verbatim.
func expandEnv(text string) string {
	if !strings.Contains(text, envPrefix) {
		return text
	}
	var sb strings.Builder
	for {
		start := strings.Index(text, envPrefix)
		if start < 0 {
			sb.WriteString(text)
			return sb.String()
		}
		sb.WriteString(text[:start])
		rest := text[start+len(envPrefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 || !isEnvName(rest[:end]) {
			sb.WriteString(envPrefix)
			text = rest
			continue
		}
		sb.WriteString(os.Getenv(rest[:end]))
		text = rest[end+1:]
	}
}

func isEnvName(name string) bool {
	for _, r := range name {
		if r != '_' && (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
