package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TeamAliases maps normalized spellings used by different feeds onto one name.
var TeamAliases = map[string]string{
	"arsenal fc":               "arsenal",
	"manchester utd":           "manchester united",
	"man united":               "manchester united",
	"man city":                 "manchester city",
	"tottenham":                "tottenham hotspur",
	"spurs":                    "tottenham hotspur",
	"newcastle utd":            "newcastle united",
	"nott'ham forest":          "nottingham forest",
	"wolves":                   "wolverhampton wanderers",
	"brighton":                 "brighton & hove albion",
	"brighton and hove albion": "brighton & hove albion",
	"west ham":                 "west ham united",
	"leeds":                    "leeds united",
	"leicester":                "leicester city",
}

// Normalize lowercases, strips diacritics, collapses whitespace,
// then resolves through the alias map.
func Normalize(s string, aliases map[string]string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = collapseWhitespace(s)
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return s
}

// SameTeam reports whether two feed spellings refer to the same club.
func SameTeam(a, b string) bool {
	return Normalize(a, TeamAliases) == Normalize(b, TeamAliases)
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
