package app

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// VenueFilter narrows a venue search.
type VenueFilter struct {
	Query  string
	Zip    string
	Limit  int
	Offset int
}

// VenueRepo handles database operations for Venue.
type VenueRepo struct {
	db *gorm.DB
}

func NewVenueRepo(db *gorm.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// Get retrieves a venue by id. Hidden venues are returned too; the API
// layer decides who sees them.
func (r *VenueRepo) Get(ctx context.Context, id uint) (*Venue, error) {
	var v Venue
	result := r.db.WithContext(ctx).First(&v, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &v, nil
}

// Create stores a new venue listing.
func (r *VenueRepo) Create(ctx context.Context, v *Venue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// Update replaces a venue listing.
func (r *VenueRepo) Update(ctx context.Context, v *Venue) error {
	return r.db.WithContext(ctx).Save(v).Error
}

// Search lists visible venues matching the filter, by name.
func (r *VenueRepo) Search(ctx context.Context, f *VenueFilter) ([]*Venue, error) {
	q := r.db.WithContext(ctx).Model(&Venue{}).Where("hidden = ?", false)

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.Zip != "" {
		q = q.Where("zip = ?", f.Zip)
	}

	limit := f.Limit
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	var out []*Venue
	result := q.Order("name ASC").Limit(limit).Offset(f.Offset).Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}

// SetHidden toggles venue visibility. Admin operation.
func (r *VenueRepo) SetHidden(ctx context.Context, id uint, hidden bool) error {
	return r.db.WithContext(ctx).Model(&Venue{}).Where("id = ?", id).Update("hidden", hidden).Error
}
