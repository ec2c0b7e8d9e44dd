package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/cache/redis"
	"github.com/sipadu-ai/evidence-service/internal/metrics"
	"github.com/sipadu-ai/evidence-service/internal/response"
	"github.com/sipadu-ai/evidence-service/internal/storage/models"
	"github.com/sipadu-ai/evidence-service/internal/storage/sqlite"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
	"github.com/sipadu-ai/evidence-service/pkg/utils"
)

// Resolution is the outcome of resolving an incoming token for a session.
type Resolution struct {
	Status       string `json:"status"` // "authenticated" or "logged_out"
	Username     string `json:"username,omitempty"`
	TokenChanged bool   `json:"token_changed"`
	CacheCleared bool   `json:"cache_cleared"`
	RedirectURL  string `json:"redirect_url,omitempty"`
}

// Manager tracks the current token per session and clears cached state
// whenever the token changes or disappears, so a stale session can
// never serve another user's conversations.
type Manager struct {
	validator    *Validator
	db           *sqlite.Client
	cache        *redis.Client // nil when redis is disabled
	registry     *response.Registry
	dashboardURL string
}

func NewManager(validator *Validator, db *sqlite.Client, cache *redis.Client, registry *response.Registry, dashboardURL string) *Manager {
	return &Manager{
		validator:    validator,
		db:           db,
		cache:        cache,
		registry:     registry,
		dashboardURL: dashboardURL,
	}
}

// Resolve validates the incoming token and reconciles it with the
// session's stored token. An absent token logs the session out if one
// existed before; a changed token clears everything cached for the
// session before the new identity takes over.
func (m *Manager) Resolve(ctx context.Context, sessionID, token string) (*Resolution, error) {
	existing, err := m.db.GetSession(sessionID)
	if err != nil {
		logger.Warn("Failed to load session record", zap.Error(err))
	}

	if token == "" {
		res := &Resolution{Status: "logged_out", RedirectURL: m.dashboardURL}
		if existing != nil {
			logger.Info("No token on request, clearing previous session",
				zap.String("session_id", sessionID))
			m.clearSession(ctx, sessionID)
			res.CacheCleared = true
		}
		metrics.SessionValidations.WithLabelValues("no_token").Inc()
		return res, nil
	}

	user, err := m.validator.Validate(ctx, token)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, err
	}
	metrics.SessionValidations.WithLabelValues("valid").Inc()

	digest := utils.TokenDigest(token)
	res := &Resolution{Status: "authenticated", Username: user.Username}

	if existing != nil && existing.TokenDigest != digest {
		logger.Info("Session token changed, clearing cached state",
			zap.String("session_id", sessionID),
			zap.String("username", user.Username),
		)
		m.clearSession(ctx, sessionID)
		res.TokenChanged = true
		res.CacheCleared = true
	}

	record := &models.SessionRecord{
		ID:          sessionID,
		TokenDigest: digest,
		Username:    user.Username,
		ValidatedAt: time.Now(),
		CreatedAt:   time.Now(),
	}
	if err := m.db.UpsertSession(record); err != nil {
		logger.Warn("Failed to store session record", zap.Error(err))
	}

	return res, nil
}

// Logout clears all cached state for the session and hands back the
// dashboard URL the frontend should return to.
func (m *Manager) Logout(ctx context.Context, sessionID string) *Resolution {
	m.clearSession(ctx, sessionID)

	if err := m.db.DeleteSession(sessionID); err != nil {
		logger.Warn("Failed to delete session record", zap.Error(err))
	}

	logger.Info("Session logged out", zap.String("session_id", sessionID))

	return &Resolution{
		Status:       "logged_out",
		CacheCleared: true,
		RedirectURL:  m.dashboardURL,
	}
}

// clearSession drops registry entries and redis keys. Redis failures are
// logged and swallowed: local clearing already revoked access on this
// replica.
func (m *Manager) clearSession(ctx context.Context, sessionID string) {
	m.registry.DropSession(sessionID)

	if m.cache != nil {
		if _, err := m.cache.ClearSession(ctx, sessionID); err != nil {
			logger.Warn("Redis session clear failed", zap.Error(err))
		}
	}

	metrics.SessionCacheClears.Inc()
}
