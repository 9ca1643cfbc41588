package app

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrUnknownReportStatus = errors.New("unknown report status")

// ReportRepo handles database operations for VenueReport.
type ReportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create files a report against a venue.
func (r *ReportRepo) Create(ctx context.Context, rep *VenueReport) error {
	rep.Status = ReportOpen
	return r.db.WithContext(ctx).Create(rep).Error
}

// Get retrieves a report by id.
func (r *ReportRepo) Get(ctx context.Context, id uint) (*VenueReport, error) {
	var rep VenueReport
	result := r.db.WithContext(ctx).First(&rep, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &rep, nil
}

// ListOpen returns unresolved reports, oldest first.
func (r *ReportRepo) ListOpen(ctx context.Context) ([]*VenueReport, error) {
	var out []*VenueReport
	result := r.db.WithContext(ctx).Where("status = ?", ReportOpen).Order("created_at ASC").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}

// SetStatus is the admin toggle: open -> resolved | dismissed.
func (r *ReportRepo) SetStatus(ctx context.Context, id uint, status string) error {
	switch status {
	case ReportOpen, ReportResolved, ReportDismissed:
	default:
		return ErrUnknownReportStatus
	}
	return r.db.WithContext(ctx).Model(&VenueReport{}).Where("id = ?", id).Update("status", status).Error
}
