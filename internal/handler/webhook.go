package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/middleware"
	"github.com/popeskul/smshub/internal/service"
)

const maxReportSize = 64 << 10

var (
	errMissingStatus = errors.New("delivery report has no status")
	errInvalidJSON   = errors.New("delivery report is not valid JSON")
)

// HandleDeliveryReport implements api.ServerInterface. Vendors post either
// JSON or form-encoded reports; anything parseable is acknowledged with 200.
func (h *Handler) HandleDeliveryReport(w http.ResponseWriter, r *http.Request, provider string) {
	report, err := decodeDeliveryReport(r)
	if err != nil {
		h.logger.Warn("Malformed delivery report",
			zap.String("provider", provider),
			zap.Error(err))
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidBody)
		return
	}

	status, err := h.service.Status.HandleCallback(r.Context(), provider, report)
	if err != nil {
		h.logger.Error("Failed to process delivery report",
			zap.String("requestID", middleware.GetRequestID(r.Context())),
			zap.String("provider", provider),
			zap.String("externalID", report.ExternalID),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToProcessReport)
		return
	}

	render.JSON(w, r, api.WebhookResponse{Status: status})
}

func decodeDeliveryReport(r *http.Request) (service.DeliveryReport, error) {
	var report service.DeliveryReport

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return report, err
		}
		report.Status = r.PostForm.Get("status")
		report.ExternalID = firstNonEmpty(r.PostForm.Get("id"), r.PostForm.Get("message_id"))
		report.Error = r.PostForm.Get("error")
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxReportSize))
		if err != nil {
			return report, err
		}
		if !gjson.ValidBytes(body) {
			return report, errInvalidJSON
		}
		// Vendors send ids as strings or numbers.
		doc := gjson.ParseBytes(body)
		report.Status = doc.Get("status").String()
		report.ExternalID = firstNonEmpty(doc.Get("id").String(), doc.Get("message_id").String())
		report.Error = doc.Get("error").String()
	}

	if report.Status == "" {
		return report, errMissingStatus
	}
	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
