package jsonapi

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a plain JSON payload. A nil value is encoded as null.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an error document. The status comes from the first error.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}

	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Document{Errors: errs})
}

func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, ErrBadRequest(detail))
}

func WriteUnauthorized(w http.ResponseWriter, detail string) {
	WriteError(w, ErrUnauthorized(detail))
}

func WriteForbidden(w http.ResponseWriter, detail string) {
	WriteError(w, ErrForbidden(detail))
}

func WriteNotFound(w http.ResponseWriter, what string) {
	WriteError(w, ErrNotFound(what))
}

// WriteValidationError writes one error per detail.
func WriteValidationError(w http.ResponseWriter, model string, details ...string) {
	WriteError(w, ErrValidation(model, details...)...)
}

func WriteInternalError(w http.ResponseWriter, detail string) {
	WriteError(w, ErrInternal(detail))
}
