package app

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// NoticeRepo persists moderation notices consumed from kafka.
type NoticeRepo struct {
	db *gorm.DB
}

func NewNoticeRepo(db *gorm.DB) *NoticeRepo {
	return &NoticeRepo{db: db}
}

// Save stores a notice. Redelivered kafka messages hit the unique Key
// index; callers treat that as already-consumed via IsDupKeyError.
func (r *NoticeRepo) Save(ctx context.Context, n *Notice) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListRecent returns the latest notices.
func (r *NoticeRepo) ListRecent(ctx context.Context, limit int) ([]*Notice, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var out []*Notice
	result := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}

// IsDupKeyError reports whether err is a unique key violation. Works
// for both mysql (production) and sqlite (tests).
func (r *NoticeRepo) IsDupKeyError(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1062") || strings.Contains(msg, "UNIQUE constraint failed")
}
