package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/coinchat/internal/chat"
)

var validate = validator.New()

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Coins    int    `json:"coins" validate:"gte=0"`
}

// CreateUserHandler handles POST /user.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid user payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Invalid user payload", http.StatusBadRequest)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Username, req.Coins)
	if err != nil {
		if chat.KindOf(err) == chat.Conflict {
			http.Error(w, "Username already exists", http.StatusBadRequest)
			return
		}
		s.log.Error(errTextCreatingUserFails, "username", req.Username, "error", err)
		http.Error(w, errTextCreatingUserFails, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, user)
}

// GetUserHandler handles GET /user/{username}.
func (s *Server) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := s.users.GetUser(r.Context(), username)
	if err != nil {
		if chat.KindOf(err) == chat.NotFound {
			http.Error(w, ErrTextUserNotFound, http.StatusNotFound)
			return
		}
		s.log.Error(errTextFindingUserFails, "username", username, "error", err)
		http.Error(w, errTextFindingUserFails, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, user)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Error writing JSON response", "error", err)
	}
}
