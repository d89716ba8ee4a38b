package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the error half of Response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// JSON writes data in a success envelope. Non-2xx codes set success=false.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeEnvelope(w, statusCode, Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// ErrorLocalized writes err in the request locale. Errors that are not an
// AppError are reported as a 500 without their text.
func ErrorLocalized(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		writeEnvelope(w, http.StatusInternalServerError, Response{Error: &ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: i18n.TFromContext(r.Context(), "errors.internal"),
		}})
		return
	}

	writeEnvelope(w, appErr.StatusCode, Response{Error: &ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Localize(r.Context()),
		Details: appErr.Details,
	}})
}

// Text writes body as a plain-text attachment named filename.
func Text(w http.ResponseWriter, statusCode int, filename, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

// DecodeJSONLocalized decodes the request body, rejecting unknown fields.
func DecodeJSONLocalized(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.BadRequest(i18n.TFromContext(r.Context(), "errors.invalid_json"))
	}
	return nil
}
