package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	catalogdomain "menu-app-go/internal/domain/catalog"
	"menu-app-go/internal/media"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, verr *catalogdomain.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    "validation_error",
		Message: "validation failed",
		Fields:  verr.Fields,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// readOnlyFields accepts keys the API returns but never writes, so a fetched
// record can be sent back as is.
type readOnlyFields struct {
	ID        json.RawMessage `json:"id"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeDecodeError reports a malformed body; a wrongly typed field becomes a field error.
func writeDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		writeValidationError(w, catalogdomain.FieldError(typeErr.Field, "Invalid value."))
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_request", "invalid json body")
}

// writeServiceError maps domain errors to the error envelope.
func (h *Handlers) writeServiceError(w http.ResponseWriter, op string, err error, args ...any) {
	var verr *catalogdomain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.log.BusinessError(op+": validation failed", err, args...)
		writeValidationError(w, verr)
	case errors.Is(err, catalogdomain.ErrMenuNotFound):
		h.log.BusinessError(op+": menu not found", err, args...)
		writeError(w, http.StatusNotFound, "menu_not_found", "menu not found")
	case errors.Is(err, catalogdomain.ErrDishNotFound):
		h.log.BusinessError(op+": dish not found", err, args...)
		writeError(w, http.StatusNotFound, "dish_not_found", "dish not found")
	case errors.Is(err, catalogdomain.ErrPermissionDenied):
		h.log.BusinessError(op+": permission denied", err, args...)
		writeError(w, http.StatusForbidden, "permission_denied", "you do not have permission to perform this action")
	case errors.Is(err, media.ErrUnsupportedImage):
		h.log.BusinessError(op+": unsupported image", err, args...)
		writeValidationError(w, catalogdomain.FieldError("image", msgInvalidImage))
	default:
		h.log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
