package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/internal/response"
	"github.com/sipadu-ai/evidence-service/internal/storage/sqlite"
)

func sipaduStub(t *testing.T, validTokens map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		username, ok := validTokens[token]

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "Token validation failed",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]any{"username": username},
		})
	}))
}

func newTestManager(t *testing.T, apiBase string) (*Manager, *response.Registry) {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	registry := response.NewRegistry(time.Hour, 10*time.Minute)
	validator := NewValidator(apiBase, 5*time.Second)

	return NewManager(validator, db, nil, registry, "https://dashboard.example/"), registry
}

func TestManager_ValidToken(t *testing.T) {
	server := sipaduStub(t, map[string]string{"tok-1": "budi"})
	defer server.Close()

	m, _ := newTestManager(t, server.URL)

	res, err := m.Resolve(context.Background(), "sess", "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "authenticated", res.Status)
	assert.Equal(t, "budi", res.Username)
	assert.False(t, res.TokenChanged)
	assert.False(t, res.CacheCleared)
}

func TestManager_InvalidToken(t *testing.T) {
	server := sipaduStub(t, nil)
	defer server.Close()

	m, _ := newTestManager(t, server.URL)

	_, err := m.Resolve(context.Background(), "sess", "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_TokenChangeClearsState(t *testing.T) {
	server := sipaduStub(t, map[string]string{"tok-1": "budi", "tok-2": "sari"})
	defer server.Close()

	m, registry := newTestManager(t, server.URL)
	ctx := context.Background()

	_, err := m.Resolve(ctx, "sess", "tok-1")
	require.NoError(t, err)

	registry.Register("sess", "conv", "resp-1", []evidence.Panel{
		{ID: "p0", Open: true, HTML: "<p>Budi's evidence.</p>"},
	})

	res, err := m.Resolve(ctx, "sess", "tok-2")
	require.NoError(t, err)

	assert.True(t, res.TokenChanged)
	assert.True(t, res.CacheCleared)
	assert.Equal(t, "sari", res.Username)

	_, found := registry.Get("sess", "conv")
	assert.False(t, found)
}

func TestManager_SameTokenKeepsState(t *testing.T) {
	server := sipaduStub(t, map[string]string{"tok-1": "budi"})
	defer server.Close()

	m, registry := newTestManager(t, server.URL)
	ctx := context.Background()

	_, err := m.Resolve(ctx, "sess", "tok-1")
	require.NoError(t, err)

	registry.Register("sess", "conv", "resp-1", nil)

	res, err := m.Resolve(ctx, "sess", "tok-1")
	require.NoError(t, err)

	assert.False(t, res.TokenChanged)
	_, found := registry.Get("sess", "conv")
	assert.True(t, found)
}

func TestManager_MissingTokenLogsOutExistingSession(t *testing.T) {
	server := sipaduStub(t, map[string]string{"tok-1": "budi"})
	defer server.Close()

	m, registry := newTestManager(t, server.URL)
	ctx := context.Background()

	_, err := m.Resolve(ctx, "sess", "tok-1")
	require.NoError(t, err)
	registry.Register("sess", "conv", "resp-1", nil)

	res, err := m.Resolve(ctx, "sess", "")
	require.NoError(t, err)

	assert.Equal(t, "logged_out", res.Status)
	assert.True(t, res.CacheCleared)
	assert.Equal(t, "https://dashboard.example/", res.RedirectURL)

	_, found := registry.Get("sess", "conv")
	assert.False(t, found)
}

func TestManager_Logout(t *testing.T) {
	server := sipaduStub(t, map[string]string{"tok-1": "budi"})
	defer server.Close()

	m, registry := newTestManager(t, server.URL)
	ctx := context.Background()

	_, err := m.Resolve(ctx, "sess", "tok-1")
	require.NoError(t, err)
	registry.Register("sess", "conv", "resp-1", nil)

	res := m.Logout(ctx, "sess")

	assert.Equal(t, "logged_out", res.Status)
	assert.True(t, res.CacheCleared)
	assert.Equal(t, "https://dashboard.example/", res.RedirectURL)

	_, found := registry.Get("sess", "conv")
	assert.False(t, found)
}
