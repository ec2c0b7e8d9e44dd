package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSegments() []Segment {
	return []Segment{
		{ID: 0, PanelID: "panel-0", Text: "The invoice number is 4521."},
		{ID: 1, PanelID: "panel-0", Text: "It was issued in March."},
		{ID: 2, PanelID: "panel-1", Text: "Payment is due in April."},
	}
}

func TestBuildIndex_Empty(t *testing.T) {
	idx := BuildIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search("anything at all"))
}

func TestIndex_ExactTextIsTopResult(t *testing.T) {
	idx := BuildIndex(testSegments())

	matches := idx.Search("It was issued in March.")
	require.NotEmpty(t, matches)
	assert.Equal(t, 1, matches[0].Segment.ID)
}

func TestIndex_PartialSelectionFindsSentence(t *testing.T) {
	idx := BuildIndex(testSegments())

	matches := idx.Search("invoice number is 4521")
	require.NotEmpty(t, matches)
	assert.Equal(t, "The invoice number is 4521.", matches[0].Segment.Text)
}

func TestIndex_PrefixMatchOnFinalTerm(t *testing.T) {
	idx := BuildIndex(testSegments())

	matches := idx.Search("invo")
	require.NotEmpty(t, matches)
	assert.Equal(t, 0, matches[0].Segment.ID)
}

func TestIndex_NoMatchReturnsEmpty(t *testing.T) {
	idx := BuildIndex(testSegments())

	assert.Empty(t, idx.Search("zzz qqq xxx"))
	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("   "))
}

func TestIndex_TieBreaksOnLowerID(t *testing.T) {
	segments := []Segment{
		{ID: 0, PanelID: "a", Text: "Duplicate sentence here."},
		{ID: 1, PanelID: "b", Text: "Duplicate sentence here."},
	}
	idx := BuildIndex(segments)

	matches := idx.Search("Duplicate sentence here.")
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Segment.ID)
}

func TestIndex_CaseInsensitive(t *testing.T) {
	idx := BuildIndex(testSegments())

	matches := idx.Search("PAYMENT IS DUE")
	require.NotEmpty(t, matches)
	assert.Equal(t, 2, matches[0].Segment.ID)
}
