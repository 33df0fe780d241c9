package shortcut

import "strings"

// Wildcard matches every file.
const Wildcard = "*"

// Pattern is a parsed file type pattern such as ".ts,.js" or "*".
type Pattern []string

// ParsePattern splits on commas and trims every token. Empty tokens are
// dropped so that "" never matches a file without an extension.
func ParsePattern(s string) Pattern {
	var p Pattern
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			p = append(p, tok)
		}
	}
	return p
}

// Matches reports whether ext (dot included, "" for none) is covered.
func (p Pattern) Matches(ext string) bool {
	for _, tok := range p {
		if tok == Wildcard || (ext != "" && tok == ext) {
			return true
		}
	}
	return false
}

func (p Pattern) String() string {
	return strings.Join(p, ",")
}
