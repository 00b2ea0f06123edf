// Package steps renders test step markup to HTML and pairs step fragments
// with their expected results. Markup that cannot be parsed is never fatal:
// the raw text is kept as a single literal paragraph instead.
package steps

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// The renderer is kept deliberately plain: no smart punctuation, so the
// same markup always produces the same fragment bytes.
var rendererParams = blackfriday.HTMLRendererParameters{Flags: blackfriday.UseXHTML}

// Render converts a markdown block into trimmed HTML. Markup the parser
// cannot handle is returned verbatim as a single paragraph.
func Render(text string) (out string) {
	defer func() {
		if recover() != nil {
			out = literalParagraph(text)
		}
	}()
	rendered := blackfriday.Run(
		[]byte(text),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(blackfriday.NewHTMLRenderer(rendererParams)),
	)
	return strings.TrimSpace(string(rendered))
}

// Fragments splits step markup into per-step HTML fragments. When the markup
// contains a top-level ordered list, every list item becomes one paragraph
// fragment; any other shape renders as a single whole-block fragment.
func Fragments(text string) (frags []string) {
	defer func() {
		if recover() != nil {
			frags = []string{literalParagraph(text)}
		}
	}()
	doc := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse([]byte(text))
	list := firstOrderedList(doc)
	if list == nil {
		return []string{Render(text)}
	}
	renderer := blackfriday.NewHTMLRenderer(rendererParams)
	for item := list.FirstChild; item != nil; item = item.Next {
		if item.Type != blackfriday.Item {
			continue
		}
		frags = append(frags, renderItem(renderer, item))
	}
	if len(frags) == 0 {
		return []string{Render(text)}
	}
	return frags
}

// Pair matches step fragments with expected-result fragments positionally.
// When the two sides disagree on the number of fragments, the whole blocks
// are kept as a single pair rather than guessing an alignment.
func Pair(stepText, expectedText string) []types.StepPair {
	stepFrags := Fragments(stepText)
	expectedFrags := Fragments(expectedText)
	if len(stepFrags) != len(expectedFrags) {
		return []types.StepPair{{Step: Render(stepText), Expected: Render(expectedText)}}
	}
	pairs := make([]types.StepPair, len(stepFrags))
	for i := range stepFrags {
		pairs[i] = types.StepPair{Step: stepFrags[i], Expected: expectedFrags[i]}
	}
	return pairs
}

func firstOrderedList(doc *blackfriday.Node) *blackfriday.Node {
	for n := doc.FirstChild; n != nil; n = n.Next {
		if n.Type == blackfriday.List && n.ListFlags&blackfriday.ListTypeOrdered != 0 {
			return n
		}
	}
	return nil
}

// renderItem renders the blocks of one list item. Tight list items come out
// of the renderer without paragraph tags, so bare content is wrapped to keep
// every fragment a paragraph.
func renderItem(renderer *blackfriday.HTMLRenderer, item *blackfriday.Node) string {
	var buf bytes.Buffer
	for child := item.FirstChild; child != nil; child = child.Next {
		child.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
			return renderer.RenderNode(&buf, node, entering)
		})
	}
	rendered := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(rendered, "<p>") {
		rendered = "<p>" + rendered + "</p>"
	}
	return rendered
}

func literalParagraph(text string) string {
	return "<p>" + strings.TrimSpace(text) + "</p>"
}
