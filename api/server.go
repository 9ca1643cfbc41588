// Package api is the REST periphery of BandSeeking: profiles, venues,
// favorites, venue reports and the admin back-office. Messaging does
// not live here; that is the websocket hub in ws/.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/auth"
	"github.com/bandseeking/bandseeking/notify"
	"github.com/bandseeking/bandseeking/store"
)

// Server carries the repos and collaborators of the REST endpoints.
type Server struct {
	authClient auth.Client

	users     *app.UserRepo
	profiles  *app.ProfileRepo
	venues    *app.VenueRepo
	favorites *app.FavoriteRepo
	reports   *app.ReportRepo
	notices   *app.NoticeRepo

	messages  store.IMessageStore
	publisher *notify.Publisher
	blobs     BlobStore

	reportLimiter limiterPool
}

// NewServer wires the REST surface. publisher and blobs may be nil;
// the dependent endpoints then degrade (no kafka publish, no uploads).
func NewServer(db *gorm.DB, messages store.IMessageStore, authClient auth.Client,
	publisher *notify.Publisher, blobs BlobStore) *Server {
	return &Server{
		authClient: authClient,
		users:      app.NewUserRepo(db),
		profiles:   app.NewProfileRepo(db),
		venues:     app.NewVenueRepo(db),
		favorites:  app.NewFavoriteRepo(db),
		reports:    app.NewReportRepo(db),
		notices:    app.NewNoticeRepo(db),
		messages:   messages,
		publisher:  publisher,
		blobs:      blobs,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/profiles", s.listProfiles).Methods(http.MethodGet)
	api.HandleFunc("/profiles/me", s.getOwnProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/me", s.putOwnProfile).Methods(http.MethodPut)
	api.HandleFunc("/profiles/me/avatar", s.uploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{id:[0-9]+}", s.getProfile).Methods(http.MethodGet)

	api.HandleFunc("/venues", s.listVenues).Methods(http.MethodGet)
	api.HandleFunc("/venues", s.createVenue).Methods(http.MethodPost)
	api.HandleFunc("/venues/{id:[0-9]+}", s.getVenue).Methods(http.MethodGet)
	api.HandleFunc("/venues/{id:[0-9]+}", s.updateVenue).Methods(http.MethodPut)

	api.HandleFunc("/favorites", s.listFavorites).Methods(http.MethodGet)
	api.HandleFunc("/favorites", s.addFavorite).Methods(http.MethodPost)
	api.HandleFunc("/favorites/{id:[0-9]+}", s.removeFavorite).Methods(http.MethodDelete)

	api.HandleFunc("/reports", s.createReport).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/reports", s.listOpenReports).Methods(http.MethodGet)
	admin.HandleFunc("/reports/{id:[0-9]+}/status", s.setReportStatus).Methods(http.MethodPut)
	admin.HandleFunc("/venues/{id:[0-9]+}/hidden", s.setVenueHidden).Methods(http.MethodPut)
	admin.HandleFunc("/profiles/{id:[0-9]+}/published", s.setProfilePublished).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/admin", s.setUserAdmin).Methods(http.MethodPut)
	admin.HandleFunc("/messages/recent", s.listRecentMessages).Methods(http.MethodGet)
	admin.HandleFunc("/notices", s.listNotices).Methods(http.MethodGet)

	return r
}

// currentUser resolves the authenticated user or writes a 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, err := s.authClient.Auth(r)
	if err != nil {
		http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
		return "", false
	}
	return uid, true
}

// adminUser resolves the authenticated user and requires the admin
// flag, or writes 401/403.
func (s *Server) adminUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return "", false
	}
	u, err := s.users.Get(r.Context(), uid)
	if err != nil {
		glog.Errorf("adminUser(): load user %s: %v", uid, err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return "", false
	}
	if u == nil || !u.IsAdmin {
		http.Error(w, `{"error":"admin only"}`, http.StatusForbidden)
		return "", false
	}
	return uid, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func storageError(w http.ResponseWriter, op string, err error) {
	glog.Errorf("%s: %v", op, err)
	http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
}
