package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bandseeking/bandseeking/app"
)

const avatarMaxBytes = 2 << 20 // 2 MiB

// listProfiles handles GET /api/profiles. Query parameters: q,
// instrument, genre, zip, limit, offset. Matching is plain substring;
// ranking is the caller's problem.
func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	out, err := s.profiles.Search(r.Context(), &app.ProfileFilter{
		Query:      q.Get("q"),
		Instrument: q.Get("instrument"),
		Genre:      q.Get("genre"),
		Zip:        q.Get("zip"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		storageError(w, "listProfiles", err)
		return
	}
	writeJSON(w, map[string]interface{}{"profiles": out})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(w, r); !ok {
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	p, err := s.profiles.Get(r.Context(), uint(id))
	if err != nil {
		storageError(w, "getProfile", err)
		return
	}
	if p == nil || !p.Published {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.GetByUser(r.Context(), uid)
	if err != nil {
		storageError(w, "getOwnProfile", err)
		return
	}
	if p == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

// putOwnProfile handles PUT /api/profiles/me: create or replace the
// caller's profile. Ownership comes from the auth boundary, never the
// body.
func (s *Server) putOwnProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var p app.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	p.UserID = uid
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		http.Error(w, `{"error":"display_name required"}`, http.StatusBadRequest)
		return
	}

	if err := s.profiles.Upsert(r.Context(), &p); err != nil {
		storageError(w, "putOwnProfile", err)
		return
	}
	writeJSON(w, &p)
}

// uploadAvatar handles POST /api/profiles/me/avatar (multipart form,
// field "avatar"). The blob store assigns the public URL.
func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if s.blobs == nil {
		http.Error(w, `{"error":"uploads disabled"}`, http.StatusNotImplemented)
		return
	}

	if err := r.ParseMultipartForm(avatarMaxBytes); err != nil {
		http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, `{"error":"avatar file required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepathExt(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		http.Error(w, `{"error":"unsupported image type"}`, http.StatusBadRequest)
		return
	}

	url, err := s.blobs.Put(ext, http.MaxBytesReader(w, file, avatarMaxBytes))
	if err != nil {
		storageError(w, "uploadAvatar", err)
		return
	}
	if err := s.profiles.SetAvatarURL(r.Context(), uid, url); err != nil {
		storageError(w, "uploadAvatar", err)
		return
	}
	writeJSON(w, map[string]string{"avatar_url": url})
}

func filepathExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
