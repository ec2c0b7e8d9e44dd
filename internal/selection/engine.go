package selection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/cache/redis"
	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/internal/metrics"
	"github.com/sipadu-ai/evidence-service/internal/response"
	"github.com/sipadu-ai/evidence-service/internal/storage/models"
	"github.com/sipadu-ai/evidence-service/internal/storage/sqlite"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

// Selection outcomes. Every path short of a transport error resolves to
// one of these; none of them is an error for the caller.
const (
	OutcomeHit            = "hit"
	OutcomeNoMatch        = "no_match"
	OutcomeStale          = "stale"
	OutcomeEmptySelection = "empty_selection"
	OutcomeNoResponse     = "no_response"
)

type Engine struct {
	registry    *response.Registry
	db          *sqlite.Client
	cache       *redis.Client // nil when redis is disabled
	highlighter *evidence.Highlighter
	snapshotTTL time.Duration
}

type Request struct {
	SessionID      string
	ConversationID string
	Selection      string
	ViewerOpen     bool
}

type Result struct {
	EventID     string                `json:"event_id"`
	Outcome     string                `json:"outcome"`
	MatchedText string                `json:"matched_text,omitempty"`
	PanelID     string                `json:"panel_id,omitempty"`
	SegmentID   int                   `json:"segment_id"`
	Panels      []evidence.Panel      `json:"panels,omitempty"`
	Reveal      evidence.RevealAction `json:"reveal"`
	LatencyMS   int                   `json:"latency_ms"`
}

func NewEngine(registry *response.Registry, db *sqlite.Client, cache *redis.Client, highlighter *evidence.Highlighter, snapshotTTL time.Duration) *Engine {
	return &Engine{
		registry:    registry,
		db:          db,
		cache:       cache,
		highlighter: highlighter,
		snapshotTTL: snapshotTTL,
	}
}

// RegisterResponse makes a new bot response the conversation's current
// one. The previous response's state, index included, is discarded.
func (e *Engine) RegisterResponse(ctx context.Context, sessionID, conversationID, responseID string, panels []evidence.Panel) error {
	e.registry.Register(sessionID, conversationID, responseID, panels)

	if e.cache != nil {
		snapshot := redis.ResponseSnapshot{ResponseID: responseID, Panels: panels}
		if err := e.cache.SetResponse(ctx, sessionID, conversationID, snapshot, e.snapshotTTL); err != nil {
			logger.Warn("Failed to cache response snapshot", zap.Error(err))
		}
	}

	record := &models.Response{
		ID:             responseID,
		SessionID:      sessionID,
		ConversationID: conversationID,
		PanelCount:     len(panels),
		CreatedAt:      time.Now(),
	}
	if err := e.db.InsertResponse(record); err != nil {
		logger.Warn("Failed to store response record", zap.Error(err))
	}

	for i, panel := range panels {
		e.db.InsertPanel(&models.PanelRecord{
			ID:         panel.ID,
			ResponseID: responseID,
			Position:   i,
			Open:       panel.Open,
			Diagram:    panel.Diagram,
			ByteSize:   len(panel.HTML),
			CreatedAt:  time.Now(),
		})
	}

	metrics.ResponsesRegistered.Inc()
	metrics.PanelsPerResponse.Observe(float64(len(panels)))

	logger.Info("Response registered",
		zap.String("conversation_id", conversationID),
		zap.String("response_id", responseID),
		zap.Int("panels", len(panels)),
	)

	return nil
}

// MatchSelection runs the full selection flow: ensure the response is
// indexed, search, highlight the top match, and decide how to reveal it.
// Every miss degrades to a non-error outcome.
func (e *Engine) MatchSelection(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	eventID := uuid.New().String()

	result := &Result{
		EventID:   eventID,
		SegmentID: -1,
		Reveal:    evidence.RevealAction{Kind: evidence.RevealNone},
	}

	selection := evidence.NormalizeSpace(req.Selection)
	if selection == "" {
		result.Outcome = OutcomeEmptySelection
		e.finish(req, result, "", startTime)
		return result, nil
	}

	state, found := e.lookupState(ctx, req.SessionID, req.ConversationID)
	if !found {
		result.Outcome = OutcomeNoResponse
		e.finish(req, result, selection, startTime)
		return result, nil
	}

	wasIndexed := state.Indexed()
	index := state.EnsureIndexed()
	if !wasIndexed {
		metrics.IndexBuilds.Inc()
		metrics.SegmentsPerBuild.Observe(float64(index.Len()))
	}

	matches := index.Search(selection)
	if len(matches) == 0 {
		result.Outcome = OutcomeNoMatch
		e.finish(req, result, selection, startTime)
		return result, nil
	}

	top := matches[0]
	highlight := e.highlighter.Apply(state.SnapshotPanels(), top.Segment.Text, req.ViewerOpen)

	if !highlight.Matched {
		// Panel collapsed or rewritten since the index was built.
		result.Outcome = OutcomeStale
		result.MatchedText = top.Segment.Text
		e.finish(req, result, selection, startTime)
		return result, nil
	}

	state.UpdatePanels(highlight.Panels)

	result.Outcome = OutcomeHit
	result.MatchedText = highlight.MatchedText
	result.PanelID = highlight.PanelID
	result.SegmentID = top.Segment.ID
	result.Panels = highlight.Panels
	result.Reveal = highlight.Reveal

	e.finish(req, result, selection, startTime)

	logger.Info("Selection matched",
		zap.String("event_id", eventID),
		zap.String("panel_id", result.PanelID),
		zap.Int("segment_id", result.SegmentID),
		zap.Int("latency_ms", result.LatencyMS),
	)

	return result, nil
}

// History returns the session's recent selection events, newest first.
func (e *Engine) History(sessionID string, limit int) ([]models.SelectionEvent, error) {
	return e.db.GetSelectionHistory(sessionID, limit)
}

// lookupState checks the local registry first and falls back to the
// redis snapshot so any replica can serve the selection.
func (e *Engine) lookupState(ctx context.Context, sessionID, conversationID string) (*response.State, bool) {
	if state, found := e.registry.Get(sessionID, conversationID); found {
		metrics.SnapshotCacheHits.WithLabelValues("registry").Inc()
		return state, true
	}

	if e.cache == nil {
		return nil, false
	}

	snapshot, found, err := e.cache.GetResponse(ctx, sessionID, conversationID)
	if err != nil {
		logger.Warn("Snapshot lookup failed", zap.Error(err))
		return nil, false
	}
	if !found {
		metrics.SnapshotCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.SnapshotCacheHits.WithLabelValues("redis").Inc()
	e.registry.Register(sessionID, conversationID, snapshot.ResponseID, snapshot.Panels)
	state, _ := e.registry.Get(sessionID, conversationID)
	return state, true
}

func (e *Engine) finish(req Request, result *Result, selection string, startTime time.Time) {
	result.LatencyMS = int(time.Since(startTime).Milliseconds())

	metrics.SelectionTotal.WithLabelValues(result.Outcome).Inc()
	metrics.SelectionDuration.Observe(time.Since(startTime).Seconds())

	responseID := ""
	if state, found := e.registry.Get(req.SessionID, req.ConversationID); found {
		responseID = state.ResponseID
	}

	event := &models.SelectionEvent{
		ID:             result.EventID,
		SessionID:      req.SessionID,
		ConversationID: req.ConversationID,
		ResponseID:     responseID,
		Selection:      selection,
		Outcome:        result.Outcome,
		MatchedText:    result.MatchedText,
		PanelID:        result.PanelID,
		SegmentID:      result.SegmentID,
		LatencyMS:      result.LatencyMS,
		CreatedAt:      time.Now(),
	}
	if err := e.db.InsertSelectionEvent(event); err != nil {
		logger.Warn("Failed to record selection event", zap.Error(err))
	}
}
