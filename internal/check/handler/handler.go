// Package handler exposes check submission, inspection and the queue status
// over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phraseguard/internal/check/models"
	"phraseguard/internal/check/service"
	"phraseguard/internal/queue"
	id "phraseguard/pkg/domain"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/httputil"
	"phraseguard/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*models.Check, error)
	Get(ctx context.Context, checkID id.CheckID) (*models.Check, error)
	Cancel(ctx context.Context, checkID id.CheckID) (*models.Check, error)
}

// QueueMonitor reports queue depth.
type QueueMonitor interface {
	Status() queue.Status
}

type Handler struct {
	svc          Service
	queue        QueueMonitor
	logger       *slog.Logger
	submitLimits []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithSubmitLimiter guards check submission with mw.
func WithSubmitLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if mw != nil {
			h.submitLimits = append(h.submitLimits, mw)
		}
	}
}

func New(svc Service, monitor QueueMonitor, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, queue: monitor, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the check and queue routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/checks", func(r chi.Router) {
		r.With(h.submitLimits...).Post("/", h.handleSubmit)
		r.Get("/{checkID}", h.handleGet)
		r.Post("/{checkID}/cancel", h.handleCancel)
	})
	r.Get("/queue/status", h.handleQueueStatus)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitCheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.svc.Submit(ctx, service.SubmitCommand{
		UserID:         req.userID,
		OrganizationID: req.orgID,
		Text:           req.Text,
		ExtractedText:  req.ExtractedText,
		InputType:      req.InputType,
		ImageRef:       req.ImageRef,
		Priority:       req.Priority,
	})
	if err != nil {
		h.fail(ctx, w, "failed to submit check", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, SubmitCheckResponse{
		CheckID: c.ID(),
		Status:  string(c.Status()),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.Get(ctx, checkID)
	if err != nil {
		h.fail(ctx, w, "failed to load check", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCheckResponse(c))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checkID, err := id.ParseCheckID(chi.URLParam(r, "checkID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.Cancel(ctx, checkID)
	if err != nil {
		h.fail(ctx, w, "failed to cancel check", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCheckResponse(c))
}

func (h *Handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.queue.Status())
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}
