package uritemplate

import (
	"strings"
	"time"
)

// transforms are the named value transforms a resolve rule may apply.
// A fixed table instead of user-supplied expression snippets keeps template
// configuration free of arbitrary code execution.
var transforms = map[string]func(string) string{
	"strip-whitespace": func(s string) string {
		return strings.Join(strings.Fields(s), "")
	},
	"replace-dash-with-endash": func(s string) string {
		return strings.ReplaceAll(s, "--", "–")
	},
	"lowercase": strings.ToLower,
	"uppercase": strings.ToUpper,
}

// date format tokens in template suffixes, longest first so MM wins over M
// and yyyy over yy.
var dateTokens = []struct{ token, layout string }{
	{"yyyy", "2006"},
	{"YYYY", "2006"},
	{"yy", "06"},
	{"MM", "01"},
	{"dd", "02"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// formatDate renders t using the template's date format tokens. An empty
// format yields RFC 3339, matching the serialized connection times.
func formatDate(t time.Time, format string) string {
	if format == "" {
		return t.UTC().Format(time.RFC3339)
	}
	var layout strings.Builder
	for i := 0; i < len(format); {
		matched := false
		for _, dt := range dateTokens {
			if strings.HasPrefix(format[i:], dt.token) {
				layout.WriteString(dt.layout)
				i += len(dt.token)
				matched = true
				break
			}
		}
		if !matched {
			layout.WriteByte(format[i])
			i++
		}
	}
	return t.Format(layout.String())
}
