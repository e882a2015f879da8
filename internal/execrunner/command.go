package execrunner

import "strings"

// Quote wraps s in double quotes for use inside a shell command line.
// Both sh and cmd.exe accept this form for paths containing spaces.
func Quote(s string) string {
	return `"` + s + `"`
}

// QuoteAll quotes each name and joins them with single spaces.
func QuoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Quote(n)
	}
	return strings.Join(quoted, " ")
}

// Command joins the non-empty parts with single spaces, so optional
// flag groups can be dropped without leaving double spaces behind.
func Command(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
