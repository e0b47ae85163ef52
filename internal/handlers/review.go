package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campdir/apiserver/internal/services"
	"github.com/campdir/apiserver/internal/store"
	"github.com/campdir/apiserver/types"
)

// ReviewHandler provides HTTP handlers for a campground's reviews.
type ReviewHandler struct {
	reviewService *services.ReviewService
	userService   *services.UserService
}

func NewReviewHandler(reviewService *services.ReviewService, userService *services.UserService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		userService:   userService,
	}
}

type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	campgroundID, err := parseCampgroundID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	review, err := h.reviewService.Create(r.Context(), campgroundID, req.Rating, req.Text, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campground not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// DeleteReview removes one review. Only the review's author or an admin
// may delete it.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id, err := parseChildID(r, "reviewID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch review")
		return
	}

	if review.AuthorID != user.ID && !user.IsAdmin {
		writeError(w, http.StatusForbidden, "you do not own this review")
		return
	}

	if err := h.reviewService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	writeJSON(w, http.StatusOK, NoticeResponse{Notice: "review deleted"})
}

func (h *ReviewHandler) currentUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, false
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.User{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	return user, true
}
