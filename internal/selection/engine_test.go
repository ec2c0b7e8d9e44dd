package selection

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/internal/response"
	"github.com/sipadu-ai/evidence-service/internal/storage/sqlite"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	registry := response.NewRegistry(time.Hour, 10*time.Minute)
	highlighter := evidence.NewHighlighter("evidence-highlight")

	return NewEngine(registry, db, nil, highlighter, time.Hour)
}

func TestEngine_SelectionHighlightsSentence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	panels := []evidence.Panel{
		{ID: "panel-0", Open: true, HTML: "<p>The invoice number is 4521. It was issued in March.</p>"},
	}
	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", panels))

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "conv",
		Selection:      "invoice number is 4521",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeHit, result.Outcome)
	assert.Equal(t, "The invoice number is 4521.", result.MatchedText)
	assert.Equal(t, "panel-0", result.PanelID)
	assert.Contains(t, result.Panels[0].HTML,
		`<mark class="evidence-highlight">The invoice number is 4521.</mark>`)
	assert.Equal(t, evidence.RevealScroll, result.Reveal.Kind)
}

func TestEngine_ViewerOpenRevealsInViewer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	panels := []evidence.Panel{
		{ID: "panel-0", Open: true, HTML: "<p>Payment is due in April.</p>"},
	}
	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", panels))

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "conv",
		Selection:      "Payment is due",
		ViewerOpen:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeHit, result.Outcome)
	assert.Equal(t, evidence.RevealViewer, result.Reveal.Kind)
	assert.Equal(t, "panel-0", result.Reveal.PanelID)
}

func TestEngine_ClosedPanelYieldsNoMatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	panels := []evidence.Panel{
		{ID: "panel-0", Open: false, HTML: "<p>Hidden evidence sentence.</p>"},
	}
	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", panels))

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "conv",
		Selection:      "Hidden evidence sentence.",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, result.Outcome)
	assert.Empty(t, result.Panels)
}

func TestEngine_EmptySelectionIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "conv",
		Selection:      "   \n ",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmptySelection, result.Outcome)
}

func TestEngine_UnknownConversation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "nowhere",
		Selection:      "anything",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoResponse, result.Outcome)
}

func TestEngine_UnrelatedSelectionIsSilent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	panels := []evidence.Panel{
		{ID: "panel-0", Open: true, HTML: "<p>The contract covers consulting work.</p>"},
	}
	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", panels))

	result, err := e.MatchSelection(ctx, Request{
		SessionID:      "sess",
		ConversationID: "conv",
		Selection:      "zzz qqq completely unrelated",
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoMatch, result.Outcome)
}

func TestEngine_ConsecutiveSelectionsKeepOneHighlight(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	panels := []evidence.Panel{
		{ID: "panel-0", Open: true, HTML: "<p>First sentence here.</p><p>Second sentence there.</p>"},
	}
	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", panels))

	first, err := e.MatchSelection(ctx, Request{
		SessionID: "sess", ConversationID: "conv", Selection: "First sentence here.",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeHit, first.Outcome)

	second, err := e.MatchSelection(ctx, Request{
		SessionID: "sess", ConversationID: "conv", Selection: "Second sentence there.",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeHit, second.Outcome)

	marks := strings.Count(second.Panels[0].HTML, "<mark")
	assert.Equal(t, 1, marks)
	assert.Contains(t, second.Panels[0].HTML,
		`<mark class="evidence-highlight">Second sentence there.</mark>`)
}

func TestEngine_NewResponseResetsState(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-1", []evidence.Panel{
		{ID: "p0", Open: true, HTML: "<p>Old response evidence.</p>"},
	}))

	_, err := e.MatchSelection(ctx, Request{
		SessionID: "sess", ConversationID: "conv", Selection: "Old response evidence.",
	})
	require.NoError(t, err)

	require.NoError(t, e.RegisterResponse(ctx, "sess", "conv", "resp-2", []evidence.Panel{
		{ID: "p0", Open: true, HTML: "<p>Fresh unrelated material.</p>"},
	}))

	result, err := e.MatchSelection(ctx, Request{
		SessionID: "sess", ConversationID: "conv", Selection: "Old response evidence.",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoMatch, result.Outcome)
}
