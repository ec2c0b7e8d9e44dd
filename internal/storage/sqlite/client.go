package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/storage/models"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		panel_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_session ON responses(session_id);
	CREATE INDEX IF NOT EXISTS idx_responses_conversation ON responses(conversation_id);

	CREATE TABLE IF NOT EXISTS evidence_panels (
		id TEXT NOT NULL,
		response_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		open INTEGER NOT NULL,
		diagram INTEGER NOT NULL,
		byte_size INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (response_id, id),
		FOREIGN KEY (response_id) REFERENCES responses(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_panels_response ON evidence_panels(response_id);

	CREATE TABLE IF NOT EXISTS selection_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		response_id TEXT,
		selection TEXT NOT NULL,
		outcome TEXT NOT NULL,
		matched_text TEXT,
		panel_id TEXT,
		segment_id INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_selections_session ON selection_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_selections_outcome ON selection_events(outcome);
	CREATE INDEX IF NOT EXISTS idx_selections_created ON selection_events(created_at);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		token_digest TEXT NOT NULL,
		username TEXT,
		validated_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_validated ON sessions(validated_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertResponse(resp *models.Response) error {
	query := `
		INSERT INTO responses (id, session_id, conversation_id, panel_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			panel_count = excluded.panel_count
	`

	_, err := c.db.Exec(
		query,
		resp.ID,
		resp.SessionID,
		resp.ConversationID,
		resp.PanelCount,
		resp.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}

	logger.Debug("Response inserted",
		zap.String("response_id", resp.ID),
		zap.String("conversation_id", resp.ConversationID),
	)
	return nil
}

func (c *Client) InsertPanel(panel *models.PanelRecord) error {
	query := `
		INSERT OR REPLACE INTO evidence_panels (id, response_id, position, open, diagram, byte_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		panel.ID,
		panel.ResponseID,
		panel.Position,
		boolToInt(panel.Open),
		boolToInt(panel.Diagram),
		panel.ByteSize,
		panel.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert panel: %w", err)
	}

	return nil
}

func (c *Client) InsertSelectionEvent(event *models.SelectionEvent) error {
	query := `
		INSERT INTO selection_events (id, session_id, conversation_id, response_id, selection,
			outcome, matched_text, panel_id, segment_id, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		event.ID,
		event.SessionID,
		event.ConversationID,
		event.ResponseID,
		event.Selection,
		event.Outcome,
		event.MatchedText,
		event.PanelID,
		event.SegmentID,
		event.LatencyMS,
		event.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert selection event: %w", err)
	}

	logger.Debug("Selection recorded",
		zap.String("event_id", event.ID),
		zap.String("outcome", event.Outcome),
	)

	return nil
}

func (c *Client) GetSelectionHistory(sessionID string, limit int) ([]models.SelectionEvent, error) {
	query := `
		SELECT id, conversation_id, response_id, selection, outcome, matched_text, latency_ms, created_at
		FROM selection_events
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get selection history: %w", err)
	}
	defer rows.Close()

	var events []models.SelectionEvent
	for rows.Next() {
		var e models.SelectionEvent
		var createdAt int64

		err := rows.Scan(&e.ID, &e.ConversationID, &e.ResponseID, &e.Selection,
			&e.Outcome, &e.MatchedText, &e.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.SessionID = sessionID
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, e)
	}

	return events, nil
}

func (c *Client) UpsertSession(record *models.SessionRecord) error {
	query := `
		INSERT INTO sessions (id, token_digest, username, validated_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token_digest = excluded.token_digest,
			username = excluded.username,
			validated_at = excluded.validated_at
	`

	_, err := c.db.Exec(
		query,
		record.ID,
		record.TokenDigest,
		record.Username,
		record.ValidatedAt.Unix(),
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (c *Client) GetSession(id string) (*models.SessionRecord, error) {
	query := `SELECT id, token_digest, username, validated_at, created_at FROM sessions WHERE id = ?`

	var record models.SessionRecord
	var validatedAt, createdAt int64

	err := c.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.TokenDigest,
		&record.Username,
		&validatedAt,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	record.ValidatedAt = time.Unix(validatedAt, 0)
	record.CreatedAt = time.Unix(createdAt, 0)

	return &record, nil
}

func (c *Client) DeleteSession(id string) error {
	_, err := c.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
