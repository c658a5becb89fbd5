package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} in input.
//
// ${VAR} expands to the variable's value, or "" when unset.
// ${VAR:-default} expands to default when the variable is unset or empty.
// Anything else, including a bare $VAR, is left as is.
func ExpandEnv(input string) string {
	matches := envVarPattern.FindAllStringSubmatchIndex(input, -1)
	if matches == nil {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		name := input[m[2]:m[3]]
		fallback := ""
		if m[4] >= 0 {
			fallback = input[m[4]:m[5]]
		}
		if v := os.Getenv(name); v != "" {
			b.WriteString(v)
		} else {
			b.WriteString(fallback)
		}
		last = m[1]
	}
	b.WriteString(input[last:])
	return b.String()
}
