package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	identity "clubid/internal/identity/models"
	id "clubid/pkg/domain"
	dErrors "clubid/pkg/domain-errors"
	trail "clubid/pkg/platform/audit"
	"clubid/pkg/platform/httputil"
	"clubid/pkg/requestcontext"
)

type Service interface {
	Query(ctx context.Context, actor identity.Actor, filter trail.Filter) ([]trail.Entry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit-entries", h.HandleQuery)
}

type EntryResponse struct {
	ID          string         `json:"id"`
	ActorID     string         `json:"actor_id"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	Action      string         `json:"action"`
	Detail      map[string]any `json:"detail,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"audit_entries"`
}

func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.Query(ctx, identity.ActorFromContext(ctx), filter)
	if err != nil {
		level := slog.LevelWarn
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "failed to query audit entries",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			ID:          e.ID,
			ActorID:     e.ActorID.String(),
			SubjectType: e.SubjectType,
			SubjectID:   e.SubjectID,
			Action:      e.Action,
			Detail:      e.Detail,
			RequestID:   e.RequestID,
			Timestamp:   e.Timestamp,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (trail.Filter, error) {
	q := r.URL.Query()
	filter := trail.Filter{
		SubjectID: q.Get("subject_id"),
		Action:    q.Get("action"),
	}
	if raw := q.Get("actor_id"); raw != "" {
		actorID, err := id.ParsePersonID(raw)
		if err != nil {
			return trail.Filter{}, err
		}
		filter.ActorID = actorID
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return trail.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	for name, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return trail.Filter{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be an RFC 3339 timestamp", name)
		}
		*dst = t
	}
	return filter, nil
}
