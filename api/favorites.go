package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/bandseeking/bandseeking/app"
)

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	out, err := s.favorites.ListByUser(r.Context(), uid)
	if err != nil {
		storageError(w, "listFavorites", err)
		return
	}
	writeJSON(w, map[string]interface{}{"favorites": out})
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var f app.Favorite
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	f.ID = 0
	f.UserID = uid

	if err := s.favorites.Add(r.Context(), &f); err != nil {
		if err == app.ErrBadFavorite {
			http.Error(w, `{"error":"exactly one of profile_id or venue_id required"}`, http.StatusBadRequest)
			return
		}
		storageError(w, "addFavorite", err)
		return
	}
	writeJSON(w, &f)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := s.favorites.Remove(r.Context(), uid, uint(id)); err != nil {
		storageError(w, "removeFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
