package server

import (
	"encoding/json"
	"net/http"

	"smm-panel-go/internal/api"
	"smm-panel-go/internal/models"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestId string `json:"request_id,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, statusCode int, code, message, requestId string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:      code,
		Message:   message,
		RequestId: requestId,
	})
}

// WriteSuccess writes data as the JSON response body
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeApiError maps a panel error to its status code. Internal causes are
// logged here and never reach the caller.
func writeApiError(w http.ResponseWriter, r *http.Request, err error) {
	kind := api.KindOf(err)
	meta := models.GetRequestMeta(r.Context())

	if kind == api.KindInternal {
		zap.L().Error("Request failed",
			zap.String("request_id", meta.RequestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		zap.L().Debug("Request rejected",
			zap.String("request_id", meta.RequestId),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}

	WriteError(w, kind.HTTPStatus(), kind.String(), api.PublicMessage(err), meta.RequestId)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, http.StatusBadRequest, api.KindValidation.String(), message, models.GetRequestMeta(r.Context()).RequestId)
}
