package response

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

// State holds the current bot response for one conversation. A response
// starts unindexed; the first selection against it builds the segment
// index exactly once. Registering a new response discards the old state.
type State struct {
	mu sync.Mutex

	ResponseID string
	Panels     []evidence.Panel

	indexed bool
	index   *evidence.Index
}

// Registry owns per-conversation response state, keyed by session and
// conversation. Entries expire so abandoned conversations do not pile up.
type Registry struct {
	cache *gocache.Cache
}

func NewRegistry(ttl, purgeInterval time.Duration) *Registry {
	return &Registry{
		cache: gocache.New(ttl, purgeInterval),
	}
}

func key(sessionID, conversationID string) string {
	return sessionID + "/" + conversationID
}

// Register replaces the conversation's current response. Any previously
// built index is discarded; segment ids restart with the next build.
func (r *Registry) Register(sessionID, conversationID, responseID string, panels []evidence.Panel) {
	state := &State{
		ResponseID: responseID,
		Panels:     panels,
	}
	r.cache.Set(key(sessionID, conversationID), state, gocache.DefaultExpiration)

	logger.Debug("Response registered",
		zap.String("conversation_id", conversationID),
		zap.String("response_id", responseID),
		zap.Int("panels", len(panels)),
	)
}

// Get returns the conversation's current response state, if any.
func (r *Registry) Get(sessionID, conversationID string) (*State, bool) {
	if x, found := r.cache.Get(key(sessionID, conversationID)); found {
		return x.(*State), true
	}
	return nil, false
}

// EnsureIndexed transitions the state to Indexed on first call and is a
// no-op afterwards: repeat calls return the same index with the same
// segment ids and count.
func (s *State) EnsureIndexed() *evidence.Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexed {
		return s.index
	}

	segments := evidence.SegmentPanels(s.Panels)
	s.index = evidence.BuildIndex(segments)
	s.indexed = true

	logger.Debug("Response indexed",
		zap.String("response_id", s.ResponseID),
		zap.Int("segments", s.index.Len()),
	)

	return s.index
}

// Indexed reports whether the index has been built.
func (s *State) Indexed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexed
}

// UpdatePanels swaps the highlighted markup back into the state so the
// next reset pass sees the current spans. The index built from the
// original markup stays untouched.
func (s *State) UpdatePanels(panels []evidence.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Panels = panels
}

// SnapshotPanels returns a copy of the current panels.
func (s *State) SnapshotPanels() []evidence.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()

	panels := make([]evidence.Panel, len(s.Panels))
	copy(panels, s.Panels)
	return panels
}

// DropConversation removes a single conversation's state.
func (r *Registry) DropConversation(sessionID, conversationID string) {
	r.cache.Delete(key(sessionID, conversationID))
}

// DropSession removes every conversation belonging to a session. Used when
// the session token changes or the user logs out.
func (r *Registry) DropSession(sessionID string) int {
	prefix := sessionID + "/"
	dropped := 0

	for k := range r.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			r.cache.Delete(k)
			dropped++
		}
	}

	if dropped > 0 {
		logger.Info("Session conversations cleared",
			zap.String("session_id", sessionID),
			zap.Int("conversations", dropped),
		)
	}

	return dropped
}
