package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bandseeking/bandseeking/app"
)

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	out, err := s.venues.Search(r.Context(), &app.VenueFilter{
		Query:  q.Get("q"),
		Zip:    q.Get("zip"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		storageError(w, "listVenues", err)
		return
	}
	writeJSON(w, map[string]interface{}{"venues": out})
}

func (s *Server) getVenue(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	v, err := s.venues.Get(r.Context(), uint(id))
	if err != nil {
		storageError(w, "getVenue", err)
		return
	}
	if v == nil || v.Hidden {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

func (s *Server) createVenue(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}

	var v app.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	v.ID = 0
	v.Hidden = false
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}

	if err := s.venues.Create(r.Context(), &v); err != nil {
		storageError(w, "createVenue", err)
		return
	}
	writeJSON(w, &v)
}

func (s *Server) updateVenue(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	existing, err := s.venues.Get(r.Context(), uint(id))
	if err != nil {
		storageError(w, "updateVenue", err)
		return
	}
	if existing == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	var v app.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	v.ID = existing.ID
	v.Hidden = existing.Hidden // only admins flip visibility
	v.CreatedAt = existing.CreatedAt
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}

	if err := s.venues.Update(r.Context(), &v); err != nil {
		storageError(w, "updateVenue", err)
		return
	}
	writeJSON(w, &v)
}
