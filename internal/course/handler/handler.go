package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"catapult/internal/course/models"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/httputil"
	"catapult/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context, tenantID, id int64) (*models.Course, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type Handler struct {
	courses Service
	logger  *slog.Logger
}

func New(courses Service, logger *slog.Logger) *Handler {
	return &Handler{courses: courses, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/courses/{id}", h.handleGet)
	r.Delete("/api/v1/courses/{id}", h.handleDelete)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseCourseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	course, err := h.courses.Get(ctx, requestcontext.TenantID(ctx), id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load course",
			"request_id", requestcontext.RequestID(ctx),
			"course_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, course)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseCourseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.courses.Delete(ctx, requestcontext.TenantID(ctx), id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete course",
			"request_id", requestcontext.RequestID(ctx),
			"course_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func parseCourseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "course id must be a positive integer")
	}
	return id, nil
}
