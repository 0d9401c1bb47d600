package memory

import (
	"testing"

	"canvasrelay/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantRegistry_RegisterAndGet(t *testing.T) {
	registry := NewMemoryParticipantRegistry()

	p, err := registry.Register("a", "Alice", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, domain.Participant{ID: "a", Name: "Alice", Color: "#ff0000"}, p)

	got, ok := registry.Get("a")
	assert.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestParticipantRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewMemoryParticipantRegistry()

	_, err := registry.Register("a", "Alice", "#ff0000")
	require.NoError(t, err)

	_, err = registry.Register("a", "Other", "#00ff00")
	assert.ErrorIs(t, err, domain.ErrParticipantExists)

	got, _ := registry.Get("a")
	assert.Equal(t, "Alice", got.Name)
}

func TestParticipantRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	registry := NewMemoryParticipantRegistry()

	for _, id := range []domain.ParticipantID{"c", "a", "b"} {
		_, err := registry.Register(id, string(id), "#000")
		require.NoError(t, err)
	}

	registry.Unregister("a")
	_, err := registry.Register("d", "d", "#000")
	require.NoError(t, err)

	var ids []domain.ParticipantID
	for _, p := range registry.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []domain.ParticipantID{"c", "b", "d"}, ids)
	assert.Equal(t, 3, registry.Len())
}

func TestParticipantRegistry_UpdateKeepsPosition(t *testing.T) {
	registry := NewMemoryParticipantRegistry()
	registry.Register("a", "Alice", "#111")
	registry.Register("b", "Bob", "#222")

	p, err := registry.Update("a", "Alicia", "#333")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", p.Name)

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.Participant{ID: "a", Name: "Alicia", Color: "#333"}, list[0])

	_, err = registry.Update("zzz", "x", "#000")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestParticipantRegistry_UnregisterIsIdempotent(t *testing.T) {
	registry := NewMemoryParticipantRegistry()
	registry.Register("a", "Alice", "#111")

	registry.Unregister("a")
	registry.Unregister("a")
	registry.Unregister("never-registered")

	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.List())
}
