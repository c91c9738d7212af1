package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	identity "clubid/internal/identity/models"
	"clubid/internal/integration/models"
	"clubid/internal/integration/service"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the integration handshake as the handler sees it.
type Service interface {
	Propose(ctx context.Context, actor identity.Actor, in service.ProposeInput) (*models.Request, error)
	Decide(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID, decision models.Decision, feedback string) (*models.Request, error)
	Reaffirm(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error)
	Withdraw(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error)
	List(ctx context.Context, actor identity.Actor, scope service.ListScope, entityID *id.EntityID) ([]*models.Request, error)
	Get(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/integration-requests", h.HandlePropose)
	r.Get("/integration-requests", h.HandleList)
	r.Get("/integration-requests/{id}", h.HandleGet)
	r.Patch("/integration-requests/{id}/decide", h.HandleDecide)
	r.Post("/integration-requests/{id}/reaffirm", h.HandleReaffirm)
	r.Post("/integration-requests/{id}/withdraw", h.HandleWithdraw)
}

func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[ProposeRequest](w, r, h.logger)
	if !ok {
		return
	}
	in, err := body.Input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Propose(ctx, identity.ActorFromContext(ctx), in)
	if err != nil {
		h.fail(ctx, w, "failed to propose integration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	scope, err := service.ParseListScope(q.Get("scope"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var entityID *id.EntityID
	if raw := q.Get("entity_id"); raw != "" {
		parsed, err := id.ParseEntityID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entityID = &parsed
	}
	reqs, err := h.service.List(ctx, identity.ActorFromContext(ctx), scope, entityID)
	if err != nil {
		h.fail(ctx, w, "failed to list integration requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, "failed to get integration request", h.service.Get)
}

func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger)
	if !ok {
		return
	}
	req, err := h.service.Decide(ctx, identity.ActorFromContext(ctx), requestID, body.ParsedDecision(), body.Feedback)
	if err != nil {
		h.fail(ctx, w, "failed to decide integration request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) HandleReaffirm(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, "failed to reaffirm integration", h.service.Reaffirm)
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, "failed to withdraw integration", h.service.Withdraw)
}

type requestAction func(ctx context.Context, actor identity.Actor, requestID id.IntegrationRequestID) (*models.Request, error)

// withRequest runs a body-less operation on the {id} path parameter.
func (h *Handler) withRequest(w http.ResponseWriter, r *http.Request, msg string, action requestAction) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := action(ctx, identity.ActorFromContext(ctx), requestID)
	if err != nil {
		h.fail(ctx, w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (id.IntegrationRequestID, bool) {
	requestID, err := id.ParseIntegrationRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.IntegrationRequestID{}, false
	}
	return requestID, true
}

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
