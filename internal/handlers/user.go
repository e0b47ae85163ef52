package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campdir/apiserver/internal/services"
	"github.com/campdir/apiserver/internal/store"
	"github.com/campdir/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides HTTP handlers for public user profiles.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Get("/{userID}", handler.GetProfile)
}

// ProfileResponse pairs a user with the campgrounds they authored.
type ProfileResponse struct {
	User        types.User         `json:"user"`
	Campgrounds []types.Campground `json:"campgrounds"`
}

// GetProfile returns a user together with every campground they created.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, campgrounds, err := h.userService.Profile(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		User:        user,
		Campgrounds: campgrounds,
	})
}
