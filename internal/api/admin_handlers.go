package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/safar/go-marketplace/internal/auth"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

type createWorkerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter")
			return
		}
		active = &b
	}
	page, pageSize := pageParams(r)

	result, err := store.ListUsers(r.Context(), s.db, active, page, pageSize)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// createWorker provisions staff accounts. COMMON accounts self-register.
func (s *Server) createWorker(w http.ResponseWriter, r *http.Request) {
	var req createWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Role {
	case models.RoleModerator, models.RoleLogistics, models.RoleAdmin:
	default:
		writeError(w, http.StatusBadRequest, "role must be MODERATOR, LOGISTICS or ADMIN")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "name, email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	user, err := store.CreateUser(r.Context(), s.db, req.Email, req.Name, hash, req.Role)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) setUserActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		if err := store.SetUserActive(r.Context(), s.db, id, active); err != nil {
			writeStoreError(w, s.log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
