package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mliu/whisper/internal/apperrors"
)

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// writeError maps a taxonomy code to an HTTP status and emits the fixed
// error shape. Unknown errors get a generic body; raw causes never reach
// the client.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown || code == apperrors.CodeInternal ||
		code == apperrors.CodeStorageUnavailable || code == apperrors.CodeAuthenticationFailure {
		logrus.WithError(err).Error("request failed")
	}
	writeJSON(w, statusFor(code), map[string]errorBody{
		"error": {Code: code, Message: apperrors.MessageOf(err)},
	})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists:
		return http.StatusConflict
	case apperrors.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
