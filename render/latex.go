// ABOUTME: Converts display formulas into LaTeX markup for preview panes on the canvas.
// ABOUTME: Display-only token mapping; the output is never parsed or evaluated.
package render

import (
	"strings"

	"github.com/2389-research/galton/formula"
)

// operatorLatex maps operator tokens to their LaTeX spelling. Operators
// not listed here pass through unchanged.
var operatorLatex = map[string]string{
	"*":  `\cdot`,
	"/":  `\div`,
	"**": "^",
	"<=": `\le`,
	">=": `\ge`,
	"!=": `\ne`,
	"==": "=",
	"%":  `\bmod`,
}

// constantLatex maps the scope constants to their LaTeX spelling,
// case-sensitively, matching how scope resolution treats them.
var constantLatex = map[string]string{
	"PI":    `\pi`,
	"E":     `\mathrm{e}`,
	"TRUE":  `\mathrm{true}`,
	"FALSE": `\mathrm{false}`,
}

// ToLatex renders a display-form formula as LaTeX. Unknown identifiers
// pass through with underscores escaped, so even a formula full of
// validation issues still previews.
func ToLatex(display string) string {
	tokens := formula.Tokenize(display)

	var b strings.Builder
	b.Grow(len(display) * 2)
	for i, tok := range tokens {
		switch tok.Kind {
		case formula.TokenOperator:
			if latex, ok := operatorLatex[tok.Text]; ok {
				b.WriteString(latex)
				continue
			}
			b.WriteString(tok.Text)
		case formula.TokenWord:
			b.WriteString(wordLatex(tokens, i))
		case formula.TokenOther:
			switch tok.Text {
			case "{":
				b.WriteString(`\{`)
			case "}":
				b.WriteString(`\}`)
			default:
				b.WriteString(tok.Text)
			}
		default:
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// wordLatex renders one identifier token: constants and function heads
// get their markup, everything else is escaped verbatim.
func wordLatex(tokens []formula.Token, i int) string {
	text := tokens[i].Text

	if latex, ok := constantLatex[text]; ok {
		return latex
	}

	if formula.IsFunction(text) && formula.IsCallHead(tokens, i) {
		lower := strings.ToLower(text)
		if lower == "sqrt" {
			return `\sqrt`
		}
		return `\operatorname{` + lower + `}`
	}

	return strings.ReplaceAll(text, "_", `\_`)
}
