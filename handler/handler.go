// Package handler provides the HTTP API for the item collections.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"picky/item"
	"picky/service"
)

// Handler holds the server dependencies and registers routes.
type Handler struct {
	svc    *service.Service
	env    string
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler and wires up all routes.
func New(svc *service.Service, envName string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{svc: svc, env: envName, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /api/health", h.health)

	for _, kind := range item.Kinds() {
		base := "/api/" + string(kind) + "-items"
		h.mux.HandleFunc("GET "+base, h.listItems(kind))
		h.mux.HandleFunc("POST "+base, h.createItem(kind))
		h.mux.HandleFunc("PUT "+base+"/{id}", h.updateItem(kind))
		h.mux.HandleFunc("DELETE "+base+"/{id}", h.deleteItem(kind))
	}
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the service error taxonomy onto HTTP statuses:
// validation 400, not_found 404, unavailable 503, backend 500.
func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// readPayload decodes the request body into an item document. A missing
// body or a non-object is a 400-class error.
func readPayload(r *http.Request) (item.Doc, error) {
	defer r.Body.Close()
	var payload item.Doc
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Picky",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	hs := h.svc.Health(r.Context())
	status := "OK"
	if !hs.Connected {
		status = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"message":      "Picky API is running",
		"env":          h.env,
		"connected":    hs.Connected,
		"storage_type": hs.Storage.Backend,
		"storage":      hs.Storage.Detail,
	})
}

// ---------- item CRUD ----------

func (h *Handler) listItems(kind item.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.GetAll(r.Context(), kind)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *Handler) createItem(kind item.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readPayload(r)
		if err != nil || payload == nil {
			writeError(w, http.StatusBadRequest, "invalid JSON data")
			return
		}
		doc, err := h.svc.Add(r.Context(), kind, payload)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": kind.Label() + " added successfully",
			"item":    doc,
		})
	}
}

func (h *Handler) updateItem(kind item.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, err := readPayload(r)
		if err != nil || patch == nil {
			writeError(w, http.StatusBadRequest, "invalid JSON data")
			return
		}
		doc, err := h.svc.Update(r.Context(), kind, r.PathValue("id"), patch)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": kind.Label() + " updated successfully",
			"item":    doc,
		})
	}
}

func (h *Handler) deleteItem(kind item.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), kind, r.PathValue("id")); err != nil {
			h.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": kind.Label() + " deleted successfully",
		})
	}
}
