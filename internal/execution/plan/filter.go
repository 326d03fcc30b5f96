package plan

import "strings"

// SplitFilter breaks a disjunctive filter into fragments on the literal "OR"
// token and trims each one. The split is not parenthesis aware, so fragments
// must not contain "OR" themselves. Trailing empty fragments are dropped.
func SplitFilter(filter string) []string {
	if strings.TrimSpace(filter) == "" {
		return nil
	}
	parts := strings.Split(filter, "OR")
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		fragments = append(fragments, strings.TrimSpace(part))
	}
	for len(fragments) > 0 && fragments[len(fragments)-1] == "" {
		fragments = fragments[:len(fragments)-1]
	}
	return fragments
}
