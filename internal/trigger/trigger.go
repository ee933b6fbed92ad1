// Package trigger recognizes reviewer commands in pull request comments.
package trigger

import (
	"strings"

	"golang.org/x/text/cases"
)

// Parser matches merge commands against a configured comment prefix, e.g.
// "@hoffbot". Matching is case-insensitive under Unicode case folding and
// tolerant of surrounding text: a comment counts as a command when
// "<prefix> merge" appears anywhere in its trimmed body.
type Parser struct {
	prefix string
}

// NewParser builds a parser for the comment prefix. The single space between
// prefix and keyword is enforced by the matcher, so operators do not need to
// embed trailing whitespace in configuration.
func NewParser(commentPrefix string) Parser {
	return Parser{prefix: cases.Fold().String(strings.TrimSpace(commentPrefix))}
}

// IsMergeCommand reports whether body contains a merge command.
func (p Parser) IsMergeCommand(body string) bool {
	if p.prefix == "" {
		return false
	}
	folded := cases.Fold().String(strings.TrimSpace(body))
	return strings.Contains(folded, p.prefix+" merge")
}
