package app

import (
	"context"

	"gorm.io/gorm"
)

// UserRepo handles database operations for User.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get retrieves a user by id. Missing user returns (nil, nil).
func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	var u User
	result := r.db.WithContext(ctx).First(&u, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &u, nil
}

// CreateOrUpdate upserts a user keyed by id.
func (r *UserRepo) CreateOrUpdate(ctx context.Context, u *User) error {
	var existing User
	result := r.db.WithContext(ctx).First(&existing, "id = ?", u.ID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(u).Error
		}
		return result.Error
	}
	u.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(u).Error
}

// ListAdminIDs returns the ids of all admin users. The notify consumer
// uses this as the audience for moderation pushes.
func (r *UserRepo) ListAdminIDs(ctx context.Context) ([]string, error) {
	var ids []string
	result := r.db.WithContext(ctx).Model(&User{}).Where("is_admin = ?", true).Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

// SetAdmin toggles the admin flag.
func (r *UserRepo) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("is_admin", admin).Error
}
