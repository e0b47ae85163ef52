package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/campdir/apiserver/internal/services"
	"github.com/campdir/apiserver/internal/store"
	"github.com/campdir/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMaxUploadSize = 10 << 20
	maxMultipartMemory   = 32 << 20

	formFieldName        = "name"
	formFieldPrice       = "price"
	formFieldDescription = "description"
	formFieldImage       = "image"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// CampgroundHandler provides HTTP handlers for campgrounds.
type CampgroundHandler struct {
	campgroundService *services.CampgroundService
	userService       *services.UserService
	maxUploadSize     int64
}

// NewCampgroundHandler constructs a handler with the provided services.
func NewCampgroundHandler(campgroundService *services.CampgroundService, userService *services.UserService, maxUploadSize int64) *CampgroundHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &CampgroundHandler{
		campgroundService: campgroundService,
		userService:       userService,
		maxUploadSize:     maxUploadSize,
	}
}

// CampgroundRouter registers campground routes, including the nested
// comment and review resources, on the given router.
func CampgroundRouter(
	r chi.Router,
	campgroundService *services.CampgroundService,
	userService *services.UserService,
	commentService *services.CommentService,
	reviewService *services.ReviewService,
	authMiddleware func(http.Handler) http.Handler,
	maxUploadSize int64,
) {
	handler := NewCampgroundHandler(campgroundService, userService, maxUploadSize)

	r.Get("/", handler.ListCampgrounds)
	r.With(authMiddleware).Post("/", handler.CreateCampground)
	r.Route("/{campgroundID}", func(r chi.Router) {
		r.Get("/", handler.GetCampground)
		// Ownership is re-verified on every mutating call, not only when
		// the edit form is fetched.
		r.With(authMiddleware, handler.requireOwner).Put("/", handler.UpdateCampground)
		r.With(authMiddleware, handler.requireOwner).Delete("/", handler.DeleteCampground)

		r.Route("/comments", func(r chi.Router) {
			commentHandler := NewCommentHandler(commentService, userService)
			r.With(authMiddleware).Post("/", commentHandler.CreateComment)
			r.With(authMiddleware).Delete("/{commentID}", commentHandler.DeleteComment)
		})
		r.Route("/reviews", func(r chi.Router) {
			reviewHandler := NewReviewHandler(reviewService, userService)
			r.With(authMiddleware).Post("/", reviewHandler.CreateReview)
			r.With(authMiddleware).Delete("/{reviewID}", reviewHandler.DeleteReview)
		})
	})
}

// ListCampgrounds returns all campgrounds, or the ones whose name
// contains the search text as a literal substring. A store failure
// degrades to an empty list rather than an error response.
func (h *CampgroundHandler) ListCampgrounds(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	if search != "" {
		items, err := h.campgroundService.Search(r.Context(), search)
		if err != nil {
			slog.Error("campground search failed", "search", search, "error", err)
			writeJSON(w, http.StatusOK, CampgroundListResponse{Items: []types.Campground{}})
			return
		}
		if len(items) == 0 {
			writeJSON(w, http.StatusOK, CampgroundListResponse{
				Items:  []types.Campground{},
				Notice: "no campground matches your search",
			})
			return
		}
		writeJSON(w, http.StatusOK, CampgroundListResponse{Items: items})
		return
	}

	items, err := h.campgroundService.List(r.Context())
	if err != nil {
		slog.Error("campground list failed", "error", err)
		writeJSON(w, http.StatusOK, CampgroundListResponse{Items: []types.Campground{}})
		return
	}
	writeJSON(w, http.StatusOK, CampgroundListResponse{Items: items})
}

// GetCampground returns one campground with its comments and reviews.
func (h *CampgroundHandler) GetCampground(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampgroundID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	campground, err := h.campgroundService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campground not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch campground")
		return
	}

	writeJSON(w, http.StatusOK, campground)
}

// CreateCampground creates a listing from a multipart form carrying the
// campground fields and exactly one image file.
func (h *CampgroundHandler) CreateCampground(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	form, file, err := h.parseCampgroundForm(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	created, err := h.campgroundService.Create(r.Context(), services.NewCampground{
		Name:        form.Name,
		Price:       form.Price,
		Description: form.Description,
		Image:       *form.Image,
	}, user)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/campgrounds/%d", created.ID))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCampground applies new field values and optionally replaces the
// image. A failed image swap aborts the whole update.
func (h *CampgroundHandler) UpdateCampground(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampgroundID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	form, file, err := h.parseCampgroundForm(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if file != nil {
		defer file.Close()
	}

	updated, err := h.campgroundService.Update(r.Context(), id, services.CampgroundUpdate{
		Name:        form.Name,
		Price:       form.Price,
		Description: form.Description,
		Image:       form.Image,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campground not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CampgroundResponse{
		Campground: updated,
		Notice:     "successfully updated",
	})
}

// DeleteCampground removes the campground, its hosted image, and its
// comments and reviews.
func (h *CampgroundHandler) DeleteCampground(w http.ResponseWriter, r *http.Request) {
	id, err := parseCampgroundID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campgroundService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campground not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete campground")
		return
	}

	writeJSON(w, http.StatusOK, NoticeResponse{Notice: "campground deleted successfully"})
}

// CampgroundResponse pairs a campground with a transient notice.
type CampgroundResponse struct {
	Campground types.Campground `json:"campground"`
	Notice     string           `json:"notice,omitempty"`
}

// CampgroundListResponse is the list/search response payload.
type CampgroundListResponse struct {
	Items  []types.Campground `json:"items"`
	Notice string             `json:"notice,omitempty"`
}

type campgroundForm struct {
	Name        string
	Price       float64
	Description string
	Image       *services.ImageUpload
}

func parseCampgroundID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "campgroundID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid campground id")
	}
	return id, nil
}

// parseCampgroundForm reads the multipart payload. The returned file, if
// any, is open and must be closed by the caller after the service call
// has consumed it.
func (h *CampgroundHandler) parseCampgroundForm(r *http.Request, imageRequired bool) (campgroundForm, multipart.File, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return campgroundForm{}, nil, errors.New("invalid multipart form")
	}

	name := strings.TrimSpace(r.FormValue(formFieldName))
	if name == "" {
		return campgroundForm{}, nil, errors.New("name is required")
	}

	price, err := parseOptionalFloat(r.FormValue(formFieldPrice))
	if err != nil || price < 0 {
		return campgroundForm{}, nil, errors.New("invalid price")
	}

	form := campgroundForm{
		Name:        name,
		Price:       price,
		Description: strings.TrimSpace(r.FormValue(formFieldDescription)),
	}

	files := r.MultipartForm.File[formFieldImage]
	if len(files) == 0 {
		if imageRequired {
			return campgroundForm{}, nil, errors.New("image file is required")
		}
		return form, nil, nil
	}
	if len(files) > 1 {
		return campgroundForm{}, nil, errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	if err := validateImageFilename(fileHeader.Filename); err != nil {
		return campgroundForm{}, nil, err
	}
	if fileHeader.Size > h.maxUploadSize {
		return campgroundForm{}, nil, errors.New("image file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return campgroundForm{}, nil, fmt.Errorf("failed to read image file: %w", err)
	}

	form.Image = &services.ImageUpload{
		Filename: fileHeader.Filename,
		File:     file,
		Size:     fileHeader.Size,
	}
	return form, file, nil
}

func parseOptionalFloat(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

func validateImageFilename(filename string) error {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return errors.New("only image files are allowed")
	}
	if !allowedImageExts[strings.ToLower(filename[dot:])] {
		return errors.New("only image files are allowed")
	}
	return nil
}

// currentUser resolves the authenticated user or writes the error response.
func (h *CampgroundHandler) currentUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
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

// requireOwner allows only the campground's author or an admin through.
func (h *CampgroundHandler) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}

		id, err := parseCampgroundID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		campground, err := h.campgroundService.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "campground not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to fetch campground")
			return
		}

		if campground.AuthorID != user.ID && !user.IsAdmin {
			writeError(w, http.StatusForbidden, "you do not own this campground")
			return
		}
		next.ServeHTTP(w, r)
	})
}
