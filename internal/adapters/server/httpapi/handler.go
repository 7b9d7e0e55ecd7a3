// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/tickit/internal/adapters/server/common"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	tasks    common.TaskService
	accounts common.AccountService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from task and account services.
func NewHandler(tasks common.TaskService, accounts common.AccountService) *Handler {
	return &Handler{
		tasks:    tasks,
		accounts: accounts,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch path {
	case "auth/signup", "auth/signin":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCredentials(w, r, path == "auth/signup")
		return
	}

	r, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	switch {
	case path == "auth/me":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		identity, _ := app.IdentityFromContext(r.Context())
		writeJSON(w, http.StatusOK, identityView(identity))
	case path == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleListTasks(w, r)
		case http.MethodPost:
			h.handleCreateTask(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case path == "tasks/clear_completed":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleClearCompleted(w, r)
	case path == "tasks/stream":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleStreamTasks(w, r)
	default:
		taskID, ok := resolveTaskID(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch r.Method {
		case http.MethodPatch:
			h.handleUpdateTask(w, r, taskID)
		case http.MethodDelete:
			h.handleDeleteTask(w, r, taskID)
		default:
			writeMethodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	}
}

// authenticate resolves the bearer token and attaches the identity to the request context.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if h.accounts == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "account service is not configured",
		})
		return r, false
	}
	token, ok := bearerToken(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "unauthenticated",
			Message: "missing bearer token",
			Hint:    "Sign in through /auth/signin and send `Authorization: Bearer <token>`.",
		})
		return r, false
	}
	view, err := h.accounts.Authenticate(r.Context(), token)
	if err != nil {
		writeErrorFrom(w, err)
		return r, false
	}
	identity := domain.Identity{ID: view.ID, Email: view.Email, Provider: view.Provider}
	return r.WithContext(app.WithIdentity(r.Context(), identity)), true
}

// ownerID returns the authenticated identity id from request context.
func ownerID(r *http.Request) string {
	identity, _ := app.IdentityFromContext(r.Context())
	return identity.ID
}

// handleCredentials serves POST `/auth/signup` and `/auth/signin`.
func (h *Handler) handleCredentials(w http.ResponseWriter, r *http.Request, signUp bool) {
	if h.accounts == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "account service is not configured",
		})
		return
	}
	var req common.CredentialsRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	var (
		res common.AuthResult
		err error
	)
	if signUp {
		res, err = h.accounts.SignUp(r.Context(), req)
	} else {
		res, err = h.accounts.SignIn(r.Context(), req)
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	status := http.StatusOK
	if signUp {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// handleListTasks serves GET `/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if !h.requireTasks(w) {
		return
	}
	filter, err := domain.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeErrorFrom(w, errors.Join(common.ErrInvalidRequest, err))
		return
	}
	list, err := h.tasks.ListTasks(r.Context(), ownerID(r))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filterList(list, filter))
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if !h.requireTasks(w) {
		return
	}
	var req common.CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	item, err := h.tasks.CreateTask(r.Context(), ownerID(r), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleUpdateTask serves PATCH `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if !h.requireTasks(w) {
		return
	}
	var req common.UpdateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	item, err := h.tasks.UpdateTask(r.Context(), ownerID(r), taskID, req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if !h.requireTasks(w) {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), ownerID(r), taskID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearCompleted serves POST `/tasks/clear_completed`.
func (h *Handler) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	if !h.requireTasks(w) {
		return
	}
	deleted, err := h.tasks.ClearCompleted(r.Context(), ownerID(r))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
	})
}

// handleStreamTasks serves GET `/tasks/stream` as server-sent `snapshot` events.
func (h *Handler) handleStreamTasks(w http.ResponseWriter, r *http.Request) {
	if !h.requireTasks(w) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: "streaming is not supported by this connection",
		})
		return
	}
	stream, stop, err := h.tasks.WatchTasks(r.Context(), ownerID(r))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case list, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(list)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// requireTasks writes a 503 when no task service is configured.
func (h *Handler) requireTasks(w http.ResponseWriter) bool {
	if h.tasks != nil {
		return true
	}
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "task service is not configured",
	})
	return false
}

// filterList narrows one snapshot to the tasks matching filter. Counts stay list-wide.
func filterList(list common.TaskList, filter domain.Filter) common.TaskList {
	if filter == domain.FilterAll {
		return list
	}
	out := list
	out.Tasks = make([]common.TaskItem, 0, len(list.Tasks))
	for _, item := range list.Tasks {
		if filter.Matches(domain.Task{Completed: item.Completed}) {
			out.Tasks = append(out.Tasks, item)
		}
	}
	return out
}

// resolveTaskID parses `/tasks/{id}` and returns `{id}`.
func resolveTaskID(path string) (string, bool) {
	const prefix = "tasks/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// bearerToken extracts the token from an `Authorization: Bearer` header.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityView(identity domain.Identity) common.IdentityView {
	return common.IdentityView{ID: identity.ID, Email: identity.Email, Provider: identity.Provider}
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// authStatus maps auth codes onto HTTP status codes.
func authStatus(code app.AuthCode) int {
	switch code {
	case app.AuthCodeEmailAlreadyInUse:
		return http.StatusConflict
	case app.AuthCodeUserNotFound, app.AuthCodeWrongPassword:
		return http.StatusUnauthorized
	case app.AuthCodeOperationNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	if code, ok := app.AuthErrorCode(err); ok {
		writeJSONError(w, authStatus(code), APIError{
			Code:    string(code),
			Message: app.AuthMessage(err),
		})
		return
	}
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "unauthenticated",
			Message: err.Error(),
			Hint:    "Sign in again to obtain a fresh token.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrConflict):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
