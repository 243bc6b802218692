package diagram

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Box metrics used when no render layer has reported a real size.
const (
	charWidth  = 8.0
	lineHeight = 18.0
	padX       = 12.0
	padY       = 8.0
	minWidth   = 40.0
)

// PlainText strips markup from a content fragment, decodes entities and
// trims surrounding whitespace. Block-level closing tags and <br> become
// line breaks.
func PlainText(content string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if tagAtom(z) == atom.Br {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			switch tagAtom(z) {
			case atom.Br, atom.P, atom.Div, atom.Li,
				atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				b.WriteByte('\n')
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

// MeasureContent estimates the box of a content fragment from its plain
// text: one line per text line, fixed-width glyphs, fixed padding.
func MeasureContent(content string) Size {
	lines := strings.Split(PlainText(content), "\n")
	widest := 0
	for _, l := range lines {
		widest = max(widest, utf8.RuneCountInString(l))
	}
	return Size{
		W: max(minWidth, float64(widest)*charWidth+2*padX),
		H: float64(len(lines))*lineHeight + 2*padY,
	}
}
