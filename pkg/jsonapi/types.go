// Package jsonapi writes error responses as JSON:API error documents
// (https://jsonapi.org/format/#errors). Entity payloads are plain JSON.
package jsonapi

// Document is the top-level error document.
type Document struct {
	Errors []Error `json:"errors"`
	Meta   Meta    `json:"meta,omitempty"`
}

// Error is one error object.
type Error struct {
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource points at the field or query parameter that caused the error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// Meta is free-form metadata.
type Meta map[string]any

// ContentType is the JSON:API media type error documents are served with.
const ContentType = "application/vnd.api+json"
