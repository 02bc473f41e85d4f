// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
)

// StatusCode maps an error to the http status code. Errors wrapping
// os.ErrInvalid, os.ErrNotExist and os.ErrExist are treated as client errors.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, os.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, os.ErrExist):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the json body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes the value as the json response body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not write json response (ignored)", "err", err)
	}
}

// WriteError writes the error as a json response with a matching status code.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusCode(err), &ErrorResponse{Error: err.Error()})
}

// JSONHandler returns a http handler that decodes the json request body into
// REQ, invokes the function and encodes the response as json. Only POST
// requests are accepted.
func JSONHandler[REQ, RESP any](fn func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			WriteJSON(w, http.StatusMethodNotAllowed, &ErrorResponse{Error: "method not allowed"})
			return
		}
		req := new(REQ)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			slog.Warn("could not decode request body", "path", r.URL.Path, "err", err)
			WriteJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			slog.Warn("request has failed", "path", r.URL.Path, "err", err)
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	})
}
