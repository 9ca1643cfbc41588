package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/notify"
	"github.com/bandseeking/bandseeking/wire"
)

// createReport handles POST /api/reports. Throttled per reporter so a
// single account cannot flood the moderation queue.
func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	if !s.reportLimiter.Allow(uid) {
		http.Error(w, `{"error":"too many reports, slow down"}`, http.StatusTooManyRequests)
		return
	}

	var rep app.VenueReport
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	rep.ID = 0
	rep.ReporterID = uid
	rep.Reason = strings.TrimSpace(rep.Reason)
	if rep.VenueID == 0 || rep.Reason == "" {
		http.Error(w, `{"error":"venue_id and reason required"}`, http.StatusBadRequest)
		return
	}

	venue, err := s.venues.Get(r.Context(), rep.VenueID)
	if err != nil {
		storageError(w, "createReport", err)
		return
	}
	if venue == nil {
		http.Error(w, `{"error":"venue not found"}`, http.StatusNotFound)
		return
	}

	if err := s.reports.Create(r.Context(), &rep); err != nil {
		storageError(w, "createReport", err)
		return
	}

	s.publishNotice(r, &wire.Notice{
		Kind:     notify.KindReport,
		VenueID:  rep.VenueID,
		ReportID: rep.ID,
		Subject:  fmt.Sprintf("venue %q reported", venue.Name),
		Body:     rep.Reason,
	})

	writeJSON(w, &rep)
}

// publishNotice hands a moderation event to kafka. Publish failures are
// logged and swallowed: the report itself is already stored.
func (s *Server) publishNotice(r *http.Request, n *wire.Notice) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(r.Context(), n); err != nil {
		glog.Errorf("publishNotice(): %v", err)
	}
}
