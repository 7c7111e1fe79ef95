package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/sefavnl/giris-ve-kayit/pkg/errors"
	"github.com/sefavnl/giris-ve-kayit/pkg/validator"
)

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "INVALID_INPUT",
			Message: "validation failed",
			Fields:  validationErr.Fields(),
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "request failed",
				slog.String("path", r.URL.Path),
				slog.String("error", appErr.Error()),
			)
		}
		writeJSON(w, appErr.Status, errorResponse{Code: appErr.Code, Message: appErr.Message})
		return
	}

	logger.ErrorContext(r.Context(), "unhandled error",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	})
}
