package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/middleware"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SendMessage implements api.ServerInterface.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, params api.SendMessageParams) {
	var req api.SendMessageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidBody)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeValidationFailed, validationMessage(err))
		return
	}

	submit := service.SubmitRequest{
		To:   req.To,
		Text: req.Text,
	}
	if req.From != nil {
		submit.From = *req.From
	}
	if req.Provider != nil {
		submit.Provider = *req.Provider
	}
	if req.Priority != nil {
		submit.Priority = *req.Priority
	}
	if req.CallbackUrl != nil {
		submit.CallbackURL = *req.CallbackUrl
	}
	switch {
	case req.IdempotencyKey != nil && *req.IdempotencyKey != "":
		submit.IdempotencyKey = *req.IdempotencyKey
	case params.IdempotencyKey != nil:
		submit.IdempotencyKey = *params.IdempotencyKey
	}

	msg, err := h.service.Message.Submit(r.Context(), submit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateIdempotencyKey):
			h.sendError(w, r, http.StatusConflict, errorCodeDuplicateKey, errorMessageDuplicateKey)
		case errors.Is(err, service.ErrUnknownProvider):
			h.sendError(w, r, http.StatusBadRequest, errorCodeUnknownProvider, err.Error())
		default:
			h.logger.Error("Failed to queue message",
				zap.String("requestID", middleware.GetRequestID(r.Context())),
				zap.Error(err))
			h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToQueueMessage)
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.MessageResponse{Data: service.ToAPIMessage(msg)})
}

// ListMessages implements api.ServerInterface.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request, params api.ListMessagesParams) {
	page := 1
	limit := defaultPageSize

	if params.Page != nil && *params.Page >= 1 {
		page = *params.Page
	}

	if params.Limit != nil && *params.Limit >= 1 && *params.Limit <= maxPageSize {
		limit = *params.Limit
	}

	if params.Status != nil && !validStatus(*params.Status) {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidStatus)
		return
	}

	result, err := h.service.Message.List(r.Context(), params.Status, page, limit)
	if err != nil {
		h.logger.Error("Failed to list messages",
			zap.String("requestID", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToRetrieveMessages)
		return
	}

	render.JSON(w, r, result)
}

// GetMessage implements api.ServerInterface.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request, id int64) {
	msg, err := h.service.Message.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			h.sendError(w, r, http.StatusNotFound, errorCodeMessageNotFound, errorMessageMessageNotFound)
			return
		}

		h.logger.Error("Failed to get message",
			zap.String("requestID", middleware.GetRequestID(r.Context())),
			zap.Int64("messageID", id),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToRetrieveMessages)
		return
	}

	render.JSON(w, r, api.MessageResponse{Data: service.ToAPIMessage(msg)})
}

// ListProviders implements api.ServerInterface.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.Message.ListProviders(r.Context())
	if err != nil {
		h.logger.Error("Failed to list providers",
			zap.String("requestID", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToListProviders)
		return
	}

	out := make([]api.Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, api.Provider{
			Id:          p.ID,
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Priority:    p.Priority,
			Capabilities: api.ProviderCapabilities{
				DeliveryReports: p.Capabilities.DeliveryReports,
				Unicode:         p.Capabilities.Unicode,
				Concatenation:   p.Capabilities.Concatenation,
				Flash:           p.Capabilities.Flash,
				Binary:          p.Capabilities.Binary,
				WapPush:         p.Capabilities.WapPush,
			},
		})
	}

	render.JSON(w, r, api.ProviderListResponse{Providers: out})
}

func validStatus(s models.MessageStatus) bool {
	switch s {
	case models.MessageStatusQueued, models.MessageStatusSent, models.MessageStatusDelivered, models.MessageStatusFailed:
		return true
	default:
		return false
	}
}
