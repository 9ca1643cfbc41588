package app

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// ProfileFilter narrows a profile search. Zero values mean "any".
// Text matching is plain substring; ranking is out of scope.
type ProfileFilter struct {
	Query      string // matches display name or bio
	Instrument string
	Genre      string
	Zip        string
	Limit      int
	Offset     int
}

const defaultSearchLimit = 50

// ProfileRepo handles database operations for Profile.
type ProfileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByUser retrieves the profile owned by a user. Missing profile
// returns (nil, nil).
func (r *ProfileRepo) GetByUser(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	result := r.db.WithContext(ctx).First(&p, "user_id = ?", userID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

// Get retrieves a profile by id.
func (r *ProfileRepo) Get(ctx context.Context, id uint) (*Profile, error) {
	var p Profile
	result := r.db.WithContext(ctx).First(&p, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

// Upsert creates or replaces the user's profile. A user owns at most
// one profile.
func (r *ProfileRepo) Upsert(ctx context.Context, p *Profile) error {
	var existing Profile
	result := r.db.WithContext(ctx).First(&existing, "user_id = ?", p.UserID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(p).Error
		}
		return result.Error
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(p).Error
}

// Search lists published profiles matching the filter, newest first.
func (r *ProfileRepo) Search(ctx context.Context, f *ProfileFilter) ([]*Profile, error) {
	q := r.db.WithContext(ctx).Model(&Profile{}).Where("published = ?", true)

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("display_name LIKE ? OR bio LIKE ?", like, like)
	}
	if f.Instrument != "" {
		q = q.Where("instruments LIKE ?", "%"+f.Instrument+"%")
	}
	if f.Genre != "" {
		q = q.Where("genres LIKE ?", "%"+f.Genre+"%")
	}
	if f.Zip != "" {
		q = q.Where("zip = ?", f.Zip)
	}

	limit := f.Limit
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	var out []*Profile
	result := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}

// SetPublished toggles profile visibility. Admin operation.
func (r *ProfileRepo) SetPublished(ctx context.Context, id uint, published bool) error {
	return r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Update("published", published).Error
}

// SetAvatarURL stores the public URL of an uploaded avatar.
func (r *ProfileRepo) SetAvatarURL(ctx context.Context, userID, url string) error {
	return r.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Update("avatar_url", url).Error
}
