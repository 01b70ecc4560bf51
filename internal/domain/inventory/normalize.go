package inventory

import "strings"

// NormalizeIdentifiers trims every entry, drops empties and repeats, and keeps
// the first-seen order. Entries containing line breaks are split first.
func NormalizeIdentifiers(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, line := range strings.FieldsFunc(entry, isLineBreak) {
			v := strings.TrimSpace(line)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// SplitLines normalizes a newline separated blob, as pasted from a scanner.
func SplitLines(blob string) []string {
	return NormalizeIdentifiers([]string{blob})
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}
