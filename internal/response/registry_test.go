package response

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
)

func newTestRegistry() *Registry {
	return NewRegistry(time.Hour, 10*time.Minute)
}

func openPanel(id, html string) evidence.Panel {
	return evidence.Panel{ID: id, HTML: html, Open: true}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := newTestRegistry()
	r.Register("sess", "conv", "resp-1", []evidence.Panel{
		openPanel("p0", "<p>Some evidence text.</p>"),
	})

	state, found := r.Get("sess", "conv")
	require.True(t, found)
	assert.Equal(t, "resp-1", state.ResponseID)
	assert.False(t, state.Indexed())

	_, found = r.Get("sess", "other")
	assert.False(t, found)
}

func TestState_EnsureIndexedIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	r.Register("sess", "conv", "resp-1", []evidence.Panel{
		openPanel("p0", "<p>First sentence. Second sentence.</p>"),
	})

	state, _ := r.Get("sess", "conv")

	first := state.EnsureIndexed()
	require.Equal(t, 2, first.Len())

	second := state.EnsureIndexed()
	assert.Same(t, first, second)
	assert.Equal(t, 2, second.Len())
	for i, seg := range second.Segments() {
		assert.Equal(t, i, seg.ID)
	}
}

func TestRegistry_NewResponseReplacesOld(t *testing.T) {
	r := newTestRegistry()
	r.Register("sess", "conv", "resp-1", []evidence.Panel{
		openPanel("p0", "<p>Old evidence.</p>"),
	})

	state, _ := r.Get("sess", "conv")
	state.EnsureIndexed()

	r.Register("sess", "conv", "resp-2", []evidence.Panel{
		openPanel("p1", "<p>New evidence.</p>"),
	})

	fresh, found := r.Get("sess", "conv")
	require.True(t, found)
	assert.Equal(t, "resp-2", fresh.ResponseID)
	assert.False(t, fresh.Indexed())
}

func TestRegistry_DropSession(t *testing.T) {
	r := newTestRegistry()
	r.Register("sess-a", "conv-1", "r1", nil)
	r.Register("sess-a", "conv-2", "r2", nil)
	r.Register("sess-b", "conv-1", "r3", nil)

	dropped := r.DropSession("sess-a")
	assert.Equal(t, 2, dropped)

	_, found := r.Get("sess-a", "conv-1")
	assert.False(t, found)
	_, found = r.Get("sess-b", "conv-1")
	assert.True(t, found)
}

func TestState_UpdatePanelsKeepsIndex(t *testing.T) {
	r := newTestRegistry()
	r.Register("sess", "conv", "resp-1", []evidence.Panel{
		openPanel("p0", "<p>Indexed sentence.</p>"),
	})

	state, _ := r.Get("sess", "conv")
	idx := state.EnsureIndexed()
	require.Equal(t, 1, idx.Len())

	state.UpdatePanels([]evidence.Panel{
		openPanel("p0", `<p><mark class="evidence-highlight">Indexed sentence.</mark></p>`),
	})

	assert.Same(t, idx, state.EnsureIndexed())
	assert.Contains(t, state.SnapshotPanels()[0].HTML, "<mark")
}
