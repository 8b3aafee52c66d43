package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv expands ${VAR} references in s.
//
// Semantics:
//   - Only the braced form is expanded; a bare `$VAR` is left alone.
//   - A missing VAR expands to "" unless strict is set, in which case
//     ExpandEnv errors and names every missing variable.
//   - `$$` emits a literal `$` (escape hatch).
func ExpandEnv(s string, strict bool) (string, error) {
	const dollarSentinel = "\x00PROFILEMCP_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	if strict {
		missing := make(map[string]struct{})
		for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
			if _, ok := os.LookupEnv(match[1]); !ok {
				missing[match[1]] = struct{}{}
			}
		}
		if len(missing) > 0 {
			keys := make([]string, 0, len(missing))
			for k := range missing {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return "", fmt.Errorf("missing required environment variables: %s", strings.Join(keys, ", "))
		}
	}

	s = envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
