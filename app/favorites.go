package app

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrBadFavorite = errors.New("favorite must reference exactly one of profile or venue")

// FavoriteRepo handles database operations for Favorite.
type FavoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add saves a favorite. Adding the same target twice is a no-op thanks
// to the unique indexes.
func (r *FavoriteRepo) Add(ctx context.Context, f *Favorite) error {
	if (f.ProfileID == nil) == (f.VenueID == nil) {
		return ErrBadFavorite
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.ProfileID != nil {
		q = q.Where("profile_id = ?", *f.ProfileID)
	} else {
		q = q.Where("venue_id = ?", *f.VenueID)
	}

	var existing Favorite
	result := q.First(&existing)
	if result.Error == nil {
		return nil // already saved
	}
	if result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}
	return r.db.WithContext(ctx).Create(f).Error
}

// Remove deletes a favorite by id, scoped to its owner.
func (r *FavoriteRepo) Remove(ctx context.Context, userID string, id uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Favorite{}, id).Error
}

// ListByUser returns a user's favorites, newest first.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]*Favorite, error) {
	var out []*Favorite
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}
