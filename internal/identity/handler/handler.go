// Package handler serves the caller's own person record under /me.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubid/internal/identity/models"
	"clubid/internal/identity/service"
	dErrors "clubid/pkg/domain-errors"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Profile(ctx context.Context, actor models.Actor) (*service.Profile, error)
	SwitchActiveRole(ctx context.Context, actor models.Actor, role models.Role) (*models.Person, error)
	UpdateIdentityDocument(ctx context.Context, actor models.Actor, document, reason string) (int, error)
	UpdateJurisdiction(ctx context.Context, actor models.Actor, jurisdiction *string) (*models.Person, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleProfile)
	r.Patch("/me/active-role", h.HandleSwitchRole)
	r.Put("/me/identity-document", h.HandleIdentityDocument)
	r.Patch("/me/jurisdiction", h.HandleJurisdiction)
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.Profile(ctx, models.ActorFromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) HandleSwitchRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[SwitchRoleRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.service.SwitchActiveRole(ctx, models.ActorFromContext(ctx), models.ParseRole(body.Role))
	if err != nil {
		h.fail(ctx, w, "failed to switch active role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(p))
}

func (h *Handler) HandleIdentityDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[DocumentRequest](w, r, h.logger)
	if !ok {
		return
	}
	suspended, err := h.service.UpdateIdentityDocument(ctx, models.ActorFromContext(ctx), body.DocumentNumber, body.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to update identity document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DocumentResponse{IntegrationsSuspended: suspended})
}

func (h *Handler) HandleJurisdiction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[JurisdictionRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.service.UpdateJurisdiction(ctx, models.ActorFromContext(ctx), body.Jurisdiction)
	if err != nil {
		h.fail(ctx, w, "failed to update jurisdiction", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(p))
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
