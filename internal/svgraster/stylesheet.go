package svgraster

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Stylesheet returns the override applied to every document so that elements
// painted with currentColor take the requested color.
func Stylesheet(r, g, b uint8) string {
	return fmt.Sprintf("* { color: rgb(%d,%d,%d); }", r, g, b)
}

// CurrentColor returns the last color declared by a rule that matches the
// document root ("*", "svg" or ":root"). It returns "" when no such rule exists.
func CurrentColor(stylesheet string) (string, error) {
	p := css.NewParser(parse.NewInputString(stylesheet), false)

	var current string
	matching := false
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("invalid stylesheet: %w", err)
			}
			return current, nil
		case css.BeginRulesetGrammar:
			matching = matchesRoot(p.Values())
		case css.EndRulesetGrammar:
			matching = false
		case css.DeclarationGrammar:
			if !matching || !strings.EqualFold(string(data), "color") {
				continue
			}
			var value strings.Builder
			for _, tok := range p.Values() {
				if tok.TokenType == css.WhitespaceToken {
					continue
				}
				value.Write(tok.Data)
			}
			current = strings.TrimSuffix(value.String(), "!important")
		}
	}
}

func matchesRoot(selector []css.Token) bool {
	var b strings.Builder
	for _, tok := range selector {
		b.Write(tok.Data)
	}
	for _, sel := range strings.Split(b.String(), ",") {
		switch strings.TrimSpace(sel) {
		case "*", "svg", ":root":
			return true
		}
	}
	return false
}
