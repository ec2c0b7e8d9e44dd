package evidence

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdkato/prose/v2"
)

// Panel is one collapsible evidence container attached to a bot response.
// Diagram panels (mindmaps, plots) carry no indexable text.
type Panel struct {
	ID      string `json:"id"`
	HTML    string `json:"html"`
	Open    bool   `json:"open"`
	Diagram bool   `json:"diagram"`
}

// Segment is one sentence extracted from an open, text-bearing panel.
// IDs are sequential in discovery order and only valid for the index
// build that produced them.
type Segment struct {
	ID      int    `json:"id"`
	PanelID string `json:"panel_id"`
	Text    string `json:"text"`
}

var (
	lineBreaks = regexp.MustCompile(`[\r\n]+`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// NormalizeSpace collapses all whitespace runs to single spaces and trims.
// Both segment texts and match queries go through this before comparison.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// SegmentPanels extracts sentence segments from the given panels in order.
// Closed and diagram panels contribute nothing. Empty sentences are
// dropped; surviving segments get sequential IDs starting at 0.
func SegmentPanels(panels []Panel) []Segment {
	var segments []Segment
	nextID := 0

	for _, panel := range panels {
		if !panel.Open || panel.Diagram {
			continue
		}

		text := panelText(panel.HTML)
		if text == "" {
			continue
		}

		for _, sentence := range splitSentences(text) {
			sentence = NormalizeSpace(sentence)
			if sentence == "" {
				continue
			}
			segments = append(segments, Segment{
				ID:      nextID,
				PanelID: panel.ID,
				Text:    sentence,
			})
			nextID++
		}
	}

	return segments
}

// panelText strips panel markup down to plain text with line breaks
// collapsed to spaces.
func panelText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, svg, canvas, img").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Text()
	text = lineBreaks.ReplaceAllString(text, " ")

	return NormalizeSpace(text)
}

// splitSentences uses prose's English sentence tokenizer. Sentence
// boundary detection only; tagging and entity extraction stay off.
func splitSentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		// Degrade to one segment per panel rather than losing the text.
		return []string{text}
	}

	sentences := doc.Sentences()
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, s.Text)
	}
	return out
}
