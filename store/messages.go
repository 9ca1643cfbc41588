package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/pborman/uuid"

	"github.com/bandseeking/bandseeking/wire"
)

const (
	fetchConversationSQL = "SELECT id,sender_id,recipient_id,body,created_at,read_flag,delivered_flag " +
		"FROM messages WHERE (sender_id=? AND recipient_id=?) OR (sender_id=? AND recipient_id=?) " +
		"ORDER BY created_at ASC, id ASC"
	getMessageSQL    = "SELECT id,sender_id,recipient_id,body,created_at,read_flag,delivered_flag FROM messages WHERE id=?"
	insertMessageSQL = "INSERT INTO messages (id,sender_id,recipient_id,body,created_at,read_flag,delivered_flag) VALUES (?,?,?,?,?,0,0)"
	setReadSQL       = "UPDATE messages SET read_flag=1 WHERE id=? AND recipient_id=? AND read_flag=0"
	setDeliveredSQL  = "UPDATE messages SET delivered_flag=1 WHERE id=? AND recipient_id=? AND delivered_flag=0"
	countUnreadSQL   = "SELECT COUNT(id) FROM messages WHERE recipient_id=? AND read_flag=0"
	listRecentSQL    = "SELECT id,sender_id,recipient_id,body,created_at,read_flag,delivered_flag " +
		"FROM messages ORDER BY created_at DESC, id DESC LIMIT ?"
	cleanMessagesSQL = "DELETE FROM messages WHERE created_at <= ?"
)

// AdminListLimit caps ListRecent.
const AdminListLimit = 100

// messageStore implements IMessageStore on MySQL.
type messageStore struct {
	*sql.DB
}

func NewMessageStore(db *sql.DB) *messageStore {
	return &messageStore{db}
}

func (s *messageStore) withTx(ctx context.Context, exec func(ctx context.Context, tx *sql.Tx) error, opts ...*sql.TxOptions) error {
	var txOpts *sql.TxOptions
	if len(opts) == 0 {
		txOpts = &sql.TxOptions{
			Isolation: sql.LevelRepeatableRead,
			ReadOnly:  false,
		}
	} else {
		txOpts = opts[0]
	}
	tx, err := s.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	if err := exec(ctx, tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			glog.Errorf("failed to rollback: %v", err2)
		}
		return err
	}

	return tx.Commit()
}

func scanMessage(scan func(...interface{}) error) (*wire.Message, error) {
	var m wire.Message
	var t time.Time
	var readFlag, deliveredFlag byte
	if err := scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &t, &readFlag, &deliveredFlag); err != nil {
		return nil, err
	}
	m.CreatedAt = t.UnixMilli()
	m.Read = readFlag > 0
	m.Delivered = deliveredFlag > 0
	return &m, nil
}

func (s *messageStore) FetchConversation(ctx context.Context, a, b string) ([]*wire.Message, error) {
	var out []*wire.Message
	if err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fetchConversationSQL, a, b, b, a)
		if err != nil {
			glog.Errorf("fetch conversation query err: %v", err)
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows.Scan)
			if err != nil {
				glog.Errorf("fetch conversation scan err: %v", err)
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *messageStore) Insert(ctx context.Context, senderID, recipientID, body string) (*wire.Message, error) {
	body = strings.TrimSpace(body)
	now := time.Now().UTC()
	m := &wire.Message{
		ID:          strings.ReplaceAll(uuid.New(), "-", ""),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   now.UnixMilli(),
	}
	if err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertMessageSQL, m.ID, m.SenderID, m.RecipientID, m.Body, now)
		if err != nil {
			glog.Errorf("insert message exec err: %v", err)
		}
		return err
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *messageStore) setFlag(ctx context.Context, query, id, recipientID string) (*wire.Message, bool, error) {
	var m *wire.Message
	var changed bool
	if err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, id, recipientID)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		changed = n == 1

		row := tx.QueryRowContext(ctx, getMessageSQL, id)
		m, err = scanMessage(row.Scan)
		if err == sql.ErrNoRows {
			m = nil
			return nil
		}
		return err
	}); err != nil {
		return nil, false, err
	}
	return m, changed, nil
}

func (s *messageStore) SetRead(ctx context.Context, id, recipientID string) (*wire.Message, bool, error) {
	return s.setFlag(ctx, setReadSQL, id, recipientID)
}

func (s *messageStore) SetDelivered(ctx context.Context, id, recipientID string) (*wire.Message, bool, error) {
	return s.setFlag(ctx, setDeliveredSQL, id, recipientID)
}

func (s *messageStore) CountUnread(ctx context.Context, uid string) (int64, error) {
	var out sql.NullInt64
	row := s.QueryRowContext(ctx, countUnreadSQL, uid)
	if err := row.Scan(&out); err != nil {
		glog.Errorf("count unread scan err: %v", err)
		return 0, err
	}
	if out.Valid {
		return out.Int64, nil
	}
	return 0, nil
}

func (s *messageStore) ListRecent(ctx context.Context, limit int) ([]*wire.Message, error) {
	if limit <= 0 || limit > AdminListLimit {
		limit = AdminListLimit
	}
	var out []*wire.Message
	rows, err := s.QueryContext(ctx, listRecentSQL, limit)
	if err != nil {
		glog.Errorf("list recent query err: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *messageStore) DeleteOutdated(ctx context.Context, ttlDays int32) (int64, error) {
	var numDeleted int64
	if err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, cleanMessagesSQL, GetDayBefore(ttlDays))
		if err != nil {
			return err
		}
		numDeleted, err = res.RowsAffected()
		return err
	}); err != nil {
		return 0, err
	}
	return numDeleted, nil
}

func (s *messageStore) IsDupKeyError(err error) bool {
	if val, ok := err.(*mysql.MySQLError); ok {
		return val.Number == 1062
	}
	return false
}
