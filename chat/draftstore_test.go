package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStoreRoundTrip(t *testing.T) {
	d, err := OpenDraftStore(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	defer d.Close()

	assert.NoError(t, d.Put("u1", "u2", "half-typed message"))

	// Both participants derive the same conversation key.
	got, err := d.Get("u2", "u1")
	assert.NoError(t, err)
	assert.Equal(t, "half-typed message", got)

	assert.NoError(t, d.Delete("u1", "u2"))
	got, err = d.Get("u1", "u2")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestDraftStoreEmptyTextDeletes(t *testing.T) {
	d, err := OpenDraftStore(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Put("u1", "u2", "keep me"))
	require.NoError(t, d.Put("u1", "u2", ""))

	got, err := d.Get("u1", "u2")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestDraftStoreIsolatesConversations(t *testing.T) {
	d, err := OpenDraftStore(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Put("u1", "u2", "for u2"))
	require.NoError(t, d.Put("u1", "u3", "for u3"))

	got, _ := d.Get("u1", "u2")
	assert.Equal(t, "for u2", got)
	got, _ = d.Get("u1", "u3")
	assert.Equal(t, "for u3", got)
}
