package notify

import (
	"context"
	"time"

	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/wire"
)

// NoticeStore adapts the gorm repos to the consumer's interface.
type NoticeStore struct {
	notices *app.NoticeRepo
	users   *app.UserRepo
}

func NewNoticeStore(notices *app.NoticeRepo, users *app.UserRepo) *NoticeStore {
	return &NoticeStore{notices: notices, users: users}
}

func (s *NoticeStore) Save(ctx context.Context, n *wire.Notice) error {
	return s.notices.Save(ctx, &app.Notice{
		Key:       n.Key,
		Kind:      n.Kind,
		VenueID:   n.VenueID,
		ReportID:  n.ReportID,
		Subject:   n.Subject,
		Body:      n.Body,
		CreatedAt: time.UnixMilli(n.CreatedAt),
	})
}

// Audience is the set of admin users.
func (s *NoticeStore) Audience(ctx context.Context) ([]string, error) {
	return s.users.ListAdminIDs(ctx)
}

func (s *NoticeStore) IsDupKeyError(err error) bool {
	return s.notices.IsDupKeyError(err)
}
