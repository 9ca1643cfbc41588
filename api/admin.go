package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/notify"
	"github.com/bandseeking/bandseeking/store"
	"github.com/bandseeking/bandseeking/wire"
)

func (s *Server) listOpenReports(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	out, err := s.reports.ListOpen(r.Context())
	if err != nil {
		storageError(w, "listOpenReports", err)
		return
	}
	writeJSON(w, map[string]interface{}{"reports": out})
}

// setReportStatus handles PUT /api/admin/reports/{id}/status. A plain
// toggle; resolving publishes a notice back through the pipeline.
func (s *Server) setReportStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	rep, err := s.reports.Get(r.Context(), uint(id))
	if err != nil {
		storageError(w, "setReportStatus", err)
		return
	}
	if rep == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	if err := s.reports.SetStatus(r.Context(), rep.ID, body.Status); err != nil {
		if err == app.ErrUnknownReportStatus {
			http.Error(w, `{"error":"unknown status"}`, http.StatusBadRequest)
			return
		}
		storageError(w, "setReportStatus", err)
		return
	}

	if body.Status == app.ReportResolved {
		s.publishNotice(r, &wire.Notice{
			Kind:     notify.KindReportResolved,
			VenueID:  rep.VenueID,
			ReportID: rep.ID,
			Subject:  fmt.Sprintf("report %d resolved", rep.ID),
		})
	}

	writeJSON(w, map[string]string{"status": body.Status})
}

func (s *Server) setVenueHidden(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var body struct {
		Hidden bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.venues.SetHidden(r.Context(), uint(id), body.Hidden); err != nil {
		storageError(w, "setVenueHidden", err)
		return
	}
	writeJSON(w, map[string]bool{"hidden": body.Hidden})
}

func (s *Server) setProfilePublished(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var body struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.profiles.SetPublished(r.Context(), uint(id), body.Published); err != nil {
		storageError(w, "setProfilePublished", err)
		return
	}
	writeJSON(w, map[string]bool{"published": body.Published})
}

func (s *Server) setUserAdmin(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var body struct {
		Admin bool `json:"admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.users.SetAdmin(r.Context(), id, body.Admin); err != nil {
		storageError(w, "setUserAdmin", err)
		return
	}
	writeJSON(w, map[string]bool{"admin": body.Admin})
}

// listRecentMessages handles GET /api/admin/messages/recent — the
// moderation view over stored chat messages, capped at the store limit.
func (s *Server) listRecentMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > store.AdminListLimit {
		limit = store.AdminListLimit
	}

	out, err := s.messages.ListRecent(r.Context(), limit)
	if err != nil {
		storageError(w, "listRecentMessages", err)
		return
	}
	writeJSON(w, map[string]interface{}{"messages": out})
}

func (s *Server) listNotices(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.adminUser(w, r); !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := s.notices.ListRecent(r.Context(), limit)
	if err != nil {
		storageError(w, "listNotices", err)
		return
	}
	writeJSON(w, map[string]interface{}{"notices": out})
}
