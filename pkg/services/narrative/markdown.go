package narrative

import "regexp"

// Frontend renderers are strict about markdown; generated prose is not.
// These passes normalize both template and model output.
var (
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	tightHeading     = regexp.MustCompile(`(?m)^(#+)([^ #])`)
	bulletMarker     = regexp.MustCompile(`(?m)^(\s*)[*•-]\s+`)
	tightNumbered    = regexp.MustCompile(`(?m)^(\s*)(\d+)\.([^ ])`)
	doubleDollar     = regexp.MustCompile(`\$\$`)
	strayDollar      = regexp.MustCompile(`\$\s+(\d)`)
	spacedPercent    = regexp.MustCompile(`(\d+)\s+%`)
)

// NormalizeMarkdown cleans analysis text before it reaches the frontend.
func NormalizeMarkdown(text string) string {
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	text = tightHeading.ReplaceAllString(text, "$1 $2")
	text = bulletMarker.ReplaceAllString(text, "$1- ")
	text = tightNumbered.ReplaceAllString(text, "$1$2. $3")
	text = doubleDollar.ReplaceAllString(text, "$$")
	text = strayDollar.ReplaceAllString(text, "$$$1")
	text = spacedPercent.ReplaceAllString(text, "$1%")
	return text
}
