package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	identity "clubid/internal/identity/models"
	"clubid/internal/rolerequest/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the role request workflow as the handler sees it.
type Service interface {
	Submit(ctx context.Context, actor identity.Actor, role identity.Role, evidence []string) (*models.Request, error)
	Approve(ctx context.Context, reviewer identity.Actor, requestID id.RoleRequestID) (*models.Request, error)
	Reject(ctx context.Context, reviewer identity.Actor, requestID id.RoleRequestID, reason string) (*models.Request, error)
	ListMine(ctx context.Context, actor identity.Actor) ([]*models.Request, error)
	ListPending(ctx context.Context, reviewer identity.Actor, limit int) ([]*models.Request, error)
	Get(ctx context.Context, actor identity.Actor, requestID id.RoleRequestID) (*models.Request, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the role request routes. Callers wrap r with the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/role-requests", h.HandleSubmit)
	r.Get("/role-requests", h.HandleListMine)
	r.Get("/role-requests/pending", h.HandleListPending)
	r.Get("/role-requests/{id}", h.HandleGet)
	r.Patch("/role-requests/{id}/approve", h.HandleApprove)
	r.Patch("/role-requests/{id}/reject", h.HandleReject)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}
	created, err := h.service.Submit(ctx, identity.ActorFromContext(ctx), req.Role(), req.EvidenceRefs)
	if err != nil {
		h.fail(ctx, w, "failed to submit role request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.service.ListMine(ctx, identity.ActorFromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to list role requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	reqs, err := h.service.ListPending(ctx, identity.ActorFromContext(ctx), limit)
	if err != nil {
		h.fail(ctx, w, "failed to list pending role requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.Get(ctx, identity.ActorFromContext(ctx), requestID)
	if err != nil {
		h.fail(ctx, w, "failed to get role request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.Approve(ctx, identity.ActorFromContext(ctx), requestID)
	if err != nil {
		h.fail(ctx, w, "failed to approve role request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger)
	if !ok {
		return
	}
	req, err := h.service.Reject(ctx, identity.ActorFromContext(ctx), requestID, body.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to reject role request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (id.RoleRequestID, bool) {
	requestID, err := id.ParseRoleRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RoleRequestID{}, false
	}
	return requestID, true
}

// fail logs expected client errors at warn and everything else at error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
