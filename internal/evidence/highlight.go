package evidence

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Reveal kinds returned with a successful highlight. The frontend either
// jumps the secondary document viewer to the highlighted panel or smooth
// scrolls the chat to it.
const (
	RevealNone   = "none"
	RevealViewer = "viewer"
	RevealScroll = "scroll"
)

type RevealAction struct {
	Kind    string `json:"kind"`
	PanelID string `json:"panel_id,omitempty"`
}

type HighlightResult struct {
	Matched     bool         `json:"matched"`
	PanelID     string       `json:"panel_id,omitempty"`
	MatchedText string       `json:"matched_text,omitempty"`
	Panels      []Panel      `json:"panels"`
	Reveal      RevealAction `json:"reveal"`
}

// Highlighter rewrites panel markup so that at most one match is wrapped
// in a highlight span at any time.
type Highlighter struct {
	markClass string
}

func NewHighlighter(markClass string) *Highlighter {
	if markClass == "" {
		markClass = "evidence-highlight"
	}
	return &Highlighter{markClass: markClass}
}

// Apply strips every existing highlight from the panels, then wraps the
// first occurrence of matchedText in the first paragraph or list item that
// contains it. A matchedText no longer present in any panel is not an
// error: the reset still happens and Matched stays false.
func (h *Highlighter) Apply(panels []Panel, matchedText string, viewerOpen bool) HighlightResult {
	result := HighlightResult{
		Panels: make([]Panel, len(panels)),
		Reveal: RevealAction{Kind: RevealNone},
	}
	copy(result.Panels, panels)

	matchedText = NormalizeSpace(matchedText)

	for i, panel := range result.Panels {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(panel.HTML))
		if err != nil {
			continue
		}

		h.reset(doc)

		if matchedText != "" && !result.Matched && panel.Open && !panel.Diagram {
			if h.wrapFirst(doc, matchedText) {
				result.Matched = true
				result.PanelID = panel.ID
				result.MatchedText = matchedText
			}
		}

		if rendered, err := doc.Find("body").Html(); err == nil {
			result.Panels[i].HTML = rendered
		}
	}

	if result.Matched {
		if viewerOpen {
			result.Reveal = RevealAction{Kind: RevealViewer, PanelID: result.PanelID}
		} else {
			result.Reveal = RevealAction{Kind: RevealScroll, PanelID: result.PanelID}
		}
	}

	return result
}

// reset unwraps highlight spans back to plain text.
func (h *Highlighter) reset(doc *goquery.Document) {
	doc.Find("mark." + h.markClass).Each(func(i int, s *goquery.Selection) {
		s.ReplaceWithHtml(html.EscapeString(s.Text()))
	})
}

// wrapFirst highlights the first occurrence of matchedText in the first
// p/li element whose text contains it. Returns false when nothing matches.
func (h *Highlighter) wrapFirst(doc *goquery.Document, matchedText string) bool {
	wrapped := false

	doc.Find("p, li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		inner, err := s.Html()
		if err != nil {
			return true
		}

		// Fast path: the raw markup contains the text verbatim, so the
		// highlight can be spliced in without disturbing nested tags.
		if idx := strings.Index(inner, matchedText); idx >= 0 {
			s.SetHtml(inner[:idx] + h.mark(matchedText) + inner[idx+len(matchedText):])
			wrapped = true
			return false
		}

		// Otherwise match against the normalized text content and rebuild
		// the element from text. Nested inline markup is lost for this one
		// element, which the panels tolerate.
		text := NormalizeSpace(s.Text())
		if idx := strings.Index(text, matchedText); idx >= 0 {
			s.SetHtml(html.EscapeString(text[:idx]) +
				h.mark(matchedText) +
				html.EscapeString(text[idx+len(matchedText):]))
			wrapped = true
			return false
		}

		return true
	})

	return wrapped
}

func (h *Highlighter) mark(text string) string {
	return fmt.Sprintf("<mark class=%q>%s</mark>", h.markClass, html.EscapeString(text))
}
