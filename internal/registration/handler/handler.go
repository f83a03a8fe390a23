package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"catapult/internal/registration/models"
	"catapult/internal/registration/service"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/httputil"
	"catapult/pkg/requestcontext"
)

// Service defines the registration operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, tenantID int64, req service.CreateRequest) (*models.Registration, error)
	Get(ctx context.Context, tenantID int64, idOrCode string) (*models.Registration, error)
	Delete(ctx context.Context, tenantID int64, idOrCode string) error
	WaiveAU(ctx context.Context, tenantID int64, idOrCode string, auIndex int, reason string) error
	CompleteAU(ctx context.Context, tenantID int64, idOrCode string, auIndex int, completion service.Completion) error
}

// WaiveRequest is the body of the waive endpoint.
type WaiveRequest struct {
	Reason string `json:"reason"`
}

func (r *WaiveRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

type Handler struct {
	registrations Service
	logger        *slog.Logger
}

func New(registrations Service, logger *slog.Logger) *Handler {
	return &Handler{registrations: registrations, logger: logger}
}

// Register mounts the registration routes. Tenant and request id
// middleware are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/registration", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/waive-au/{auIndex}", h.handleWaiveAU)
		r.Post("/{id}/complete-au/{auIndex}", h.handleCompleteAU)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[service.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.registrations.Create(ctx, requestcontext.TenantID(ctx), *req)
	if err != nil {
		h.logFailure(ctx, "failed to create registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reg, err := h.registrations.Get(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "failed to load registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registrations.Delete(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "id")); err != nil {
		h.logFailure(ctx, "failed to delete registration", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) handleWaiveAU(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	auIndex, err := parseAUIndex(chi.URLParam(r, "auIndex"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[WaiveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err = h.registrations.WaiveAU(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "id"), auIndex, req.Reason)
	if err != nil {
		h.logFailure(ctx, "failed to waive AU", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) handleCompleteAU(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	auIndex, err := parseAUIndex(chi.URLParam(r, "auIndex"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[service.Completion](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err = h.registrations.CompleteAU(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "id"), auIndex, *req)
	if err != nil {
		h.logFailure(ctx, "failed to complete AU", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	code := dErrors.CodeOf(err)
	level := slog.LevelWarn
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"code", string(code),
		"error", err,
	)
}

func parseAUIndex(raw string) (int, error) {
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "auIndex must be a non-negative integer")
	}
	return idx, nil
}
