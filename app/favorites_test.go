package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteAddIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewFavoriteRepo(db)
	ctx := context.Background()

	seedUser(t, db, "alice", false)
	venueID := uint(7)

	require.NoError(t, repo.Add(ctx, &Favorite{UserID: "alice", VenueID: &venueID}))
	require.NoError(t, repo.Add(ctx, &Favorite{UserID: "alice", VenueID: &venueID}))

	got, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFavoriteRejectsAmbiguousTarget(t *testing.T) {
	repo := NewFavoriteRepo(openTestDB(t))
	ctx := context.Background()

	venueID, profileID := uint(1), uint(2)

	err := repo.Add(ctx, &Favorite{UserID: "alice"})
	assert.ErrorIs(t, err, ErrBadFavorite)

	err = repo.Add(ctx, &Favorite{UserID: "alice", VenueID: &venueID, ProfileID: &profileID})
	assert.ErrorIs(t, err, ErrBadFavorite)
}

func TestFavoriteRemoveScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	repo := NewFavoriteRepo(db)
	ctx := context.Background()

	venueID := uint(7)
	require.NoError(t, repo.Add(ctx, &Favorite{UserID: "alice", VenueID: &venueID}))

	got, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Someone else cannot delete alice's favorite.
	require.NoError(t, repo.Remove(ctx, "bob", got[0].ID))
	left, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	require.NoError(t, repo.Remove(ctx, "alice", got[0].ID))
	left, err = repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, left)
}
