package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentPanels_OrderAndIDs(t *testing.T) {
	panels := []Panel{
		{ID: "panel-0", Open: true, HTML: "<p>The invoice number is 4521. It was issued in March.</p>"},
		{ID: "panel-1", Open: true, HTML: "<p>Payment is due in April.</p>"},
	}

	segments := SegmentPanels(panels)
	require.Len(t, segments, 3)

	assert.Equal(t, "The invoice number is 4521.", segments[0].Text)
	assert.Equal(t, "It was issued in March.", segments[1].Text)
	assert.Equal(t, "Payment is due in April.", segments[2].Text)

	for i, seg := range segments {
		assert.Equal(t, i, seg.ID)
	}

	assert.Equal(t, "panel-0", segments[0].PanelID)
	assert.Equal(t, "panel-0", segments[1].PanelID)
	assert.Equal(t, "panel-1", segments[2].PanelID)
}

func TestSegmentPanels_SkipsIneligiblePanels(t *testing.T) {
	t.Run("closed panel", func(t *testing.T) {
		panels := []Panel{
			{ID: "closed", Open: false, HTML: "<p>Hidden evidence text.</p>"},
		}
		assert.Empty(t, SegmentPanels(panels))
	})

	t.Run("diagram panel", func(t *testing.T) {
		panels := []Panel{
			{ID: "mindmap", Open: true, Diagram: true, HTML: "<svg><g>diagram</g></svg>"},
		}
		assert.Empty(t, SegmentPanels(panels))
	})

	t.Run("empty panel", func(t *testing.T) {
		panels := []Panel{
			{ID: "blank", Open: true, HTML: "<p>   </p>"},
		}
		assert.Empty(t, SegmentPanels(panels))
	})
}

func TestSegmentPanels_CollapsesLineBreaks(t *testing.T) {
	panels := []Panel{
		{ID: "p", Open: true, HTML: "<p>The report was\nfiled on time.</p>"},
	}

	segments := SegmentPanels(panels)
	require.Len(t, segments, 1)
	assert.Equal(t, "The report was filed on time.", segments[0].Text)
}

func TestSegmentPanels_IgnoresScriptsAndImages(t *testing.T) {
	panels := []Panel{
		{ID: "p", Open: true, HTML: "<p>Visible sentence.</p><script>var x = 1;</script><img src='x.png'>"},
	}

	segments := SegmentPanels(panels)
	require.Len(t, segments, 1)
	assert.Equal(t, "Visible sentence.", segments[0].Text)
}

func TestSegmentPanels_FreshIDsPerBuild(t *testing.T) {
	first := SegmentPanels([]Panel{
		{ID: "a", Open: true, HTML: "<p>One. Two.</p>"},
	})
	second := SegmentPanels([]Panel{
		{ID: "b", Open: true, HTML: "<p>Three.</p>"},
	})

	require.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, 0, second[0].ID)
}

func TestNormalizeSpace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeSpace("  a\n b\t\tc  "))
	assert.Equal(t, "", NormalizeSpace(" \n\t "))
}
