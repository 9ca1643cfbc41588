package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/auth"
	"github.com/bandseeking/bandseeking/store"
	store_mock "github.com/bandseeking/bandseeking/store/mock"
	"github.com/bandseeking/bandseeking/wire"
)

func newTestServer(t *testing.T, messages *store_mock.MockIMessageStore) (*Server, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(app.AllModels()...))

	var msgStore store.IMessageStore
	if messages != nil {
		msgStore = messages
	}
	s := NewServer(db, msgStore, &auth.MockClient{}, nil, nil)
	return s, db
}

func seedUser(t *testing.T, db *gorm.DB, id string, admin bool) {
	t.Helper()
	err := app.NewUserRepo(db).CreateOrUpdate(context.Background(), &app.User{
		ID:      id,
		Email:   id + "@example.com",
		IsAdmin: admin,
	})
	require.NoError(t, err)
}

// doJSON fires a request as the given user and decodes the response.
func doJSON(t *testing.T, h http.Handler, method, target, uid string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if uid != "" {
		req.AddCookie(&http.Cookie{Name: "x-uid", Value: uid})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t, nil)
	router := s.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/profiles", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileUpsertAndSearch(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)

	var created app.Profile
	rec := doJSON(t, router, http.MethodPut, "/api/profiles/me", "alice", map[string]interface{}{
		"DisplayName": "Alice",
		"Instruments": "guitar",
		"Zip":         "10001",
		"Published":   true,
	}, &created)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", created.UserID)

	// body-supplied user id is ignored
	rec = doJSON(t, router, http.MethodPut, "/api/profiles/me", "alice", map[string]interface{}{
		"UserID":      "mallory",
		"DisplayName": "Alice B",
		"Published":   true,
	}, &created)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", created.UserID)

	var listed struct {
		Profiles []*app.Profile `json:"profiles"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/profiles?q=alice", "alice", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listed.Profiles, 1)
	assert.Equal(t, "Alice B", listed.Profiles[0].DisplayName)
}

func TestProfileMissingDisplayName(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)

	rec := doJSON(t, router, http.MethodPut, "/api/profiles/me", "alice", map[string]interface{}{
		"DisplayName": "   ",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVenueReportFlow(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)
	seedUser(t, db, "mod", true)

	var venue app.Venue
	rec := doJSON(t, router, http.MethodPost, "/api/venues", "alice", map[string]interface{}{
		"Name": "The Basement",
		"Zip":  "10001",
	}, &venue)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotZero(t, venue.ID)

	var report app.VenueReport
	rec = doJSON(t, router, http.MethodPost, "/api/reports", "alice", map[string]interface{}{
		"VenueID": venue.ID,
		"Reason":  "closed down",
	}, &report)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ReportOpen, report.Status)
	assert.Equal(t, "alice", report.ReporterID)

	// plain users cannot read the moderation queue
	rec = doJSON(t, router, http.MethodGet, "/api/admin/reports", "alice", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var listed struct {
		Reports []*app.VenueReport `json:"reports"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/admin/reports", "mod", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listed.Reports, 1)

	rec = doJSON(t, router, http.MethodPut, "/api/admin/reports/1/status", "mod", map[string]string{
		"status": app.ReportResolved,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/admin/reports", "mod", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listed.Reports)
}

func TestReportRateLimit(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)

	var venue app.Venue
	rec := doJSON(t, router, http.MethodPost, "/api/venues", "alice", map[string]interface{}{"Name": "Spot"}, &venue)
	require.Equal(t, http.StatusOK, rec.Code)

	body := map[string]interface{}{"VenueID": venue.ID, "Reason": "spam spam"}
	var throttled bool
	for i := 0; i < 5; i++ {
		rec = doJSON(t, router, http.MethodPost, "/api/reports", "alice", body, nil)
		if rec.Code == http.StatusTooManyRequests {
			throttled = true
			break
		}
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.True(t, throttled, "burst of reports should hit the limiter")
}

func TestHiddenVenueNotFound(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)
	seedUser(t, db, "mod", true)

	var venue app.Venue
	rec := doJSON(t, router, http.MethodPost, "/api/venues", "alice", map[string]interface{}{"Name": "Dive"}, &venue)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/admin/venues/1/hidden", "mod", map[string]bool{"hidden": true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/venues/1", "alice", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var listed struct {
		Venues []*app.Venue `json:"venues"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/venues", "alice", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, listed.Venues)
}

func TestFavoritesEndpoints(t *testing.T) {
	s, db := newTestServer(t, nil)
	router := s.Router()
	seedUser(t, db, "alice", false)

	rec := doJSON(t, router, http.MethodPost, "/api/favorites", "alice", map[string]interface{}{
		"VenueID": 3,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/favorites", "alice", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var listed struct {
		Favorites []*app.Favorite `json:"favorites"`
	}
	rec = doJSON(t, router, http.MethodGet, "/api/favorites", "alice", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listed.Favorites, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/favorites/1", "alice", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminRecentMessages(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	messages := store_mock.NewMockIMessageStore(mockCtrl)
	s, db := newTestServer(t, messages)
	router := s.Router()
	seedUser(t, db, "mod", true)

	messages.EXPECT().ListRecent(gomock.Any(), 10).Return([]*wire.Message{
		{ID: "m1", SenderID: "a", RecipientID: "b", Body: "hi"},
	}, nil)

	var listed struct {
		Messages []*wire.Message `json:"messages"`
	}
	rec := doJSON(t, router, http.MethodGet, "/api/admin/messages/recent?limit=10", "mod", nil, &listed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listed.Messages, 1)
	assert.Equal(t, "m1", listed.Messages[0].ID)
}
