// Package handler exposes dictionary management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phraseguard/internal/dictionary/models"
	"phraseguard/internal/dictionary/service"
	embmodels "phraseguard/internal/embedding/models"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/httputil"
	"phraseguard/pkg/requestcontext"
)

// Service defines the dictionary operations the handler needs.
type Service interface {
	Create(ctx context.Context, cmd service.CreateItemCommand) (*models.Item, error)
	Update(ctx context.Context, itemID id.DictionaryItemID, cmd service.UpdateItemCommand) (*models.Item, error)
	List(ctx context.Context, orgID id.OrganizationID) ([]*models.Item, error)
	RegenerateEmbeddings(ctx context.Context, orgID id.OrganizationID) (id.EmbeddingJobID, error)
	EmbeddingJob(ctx context.Context, jobID id.EmbeddingJobID) (*embmodels.Job, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the dictionary routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dictionary", h.handleCreate)
	r.Patch("/dictionary/{itemID}", h.handleUpdate)
	r.Get("/organizations/{orgID}/dictionary", h.handleList)
	r.Post("/organizations/{orgID}/embeddings", h.handleRegenerate)
	r.Get("/embedding-jobs/{jobID}", h.handleEmbeddingJob)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	it, err := h.svc.Create(ctx, service.CreateItemCommand{
		OrganizationID: req.orgID,
		Phrase:         req.Phrase,
		Category:       req.Category,
		Notes:          req.Notes,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create dictionary item", err)
		return
	}
	h.logger.InfoContext(ctx, "dictionary item created",
		"request_id", requestID,
		"item_id", it.ID(),
		"org_id", it.OrganizationID(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toItemResponse(it))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	itemID, err := id.ParseDictionaryItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	it, err := h.svc.Update(ctx, itemID, service.UpdateItemCommand{
		Phrase:   req.Phrase,
		Category: req.Category,
	})
	if err != nil {
		h.fail(ctx, w, "failed to update dictionary item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toItemResponse(it))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, err := h.svc.List(ctx, orgID)
	if err != nil {
		h.fail(ctx, w, "failed to list dictionary", err)
		return
	}
	resp := ListItemsResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	jobID, err := h.svc.RegenerateEmbeddings(ctx, orgID)
	if err != nil {
		h.fail(ctx, w, "failed to schedule embeddings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, EmbeddingJobAcceptedResponse{JobID: jobID})
}

func (h *Handler) handleEmbeddingJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID, err := id.ParseEmbeddingJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	job, err := h.svc.EmbeddingJob(ctx, jobID)
	if err != nil {
		h.fail(ctx, w, "failed to load embedding job", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEmbeddingJobResponse(job))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
