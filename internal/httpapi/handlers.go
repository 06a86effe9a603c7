package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"appforge/internal/codegen"
	"appforge/internal/llm/client"
	"appforge/internal/models"
	"appforge/internal/repositories"
	"appforge/internal/services"
)

// Streams attaches subscribers to in-flight generation topics.
type Streams interface {
	SubscribeTopic(ctx context.Context, topic string) (<-chan codegen.Frame, error)
}

// Handler carries the services the HTTP routes are built on.
type Handler struct {
	apps    services.AppService
	history services.ChatHistoryService
	users   services.UserService
	keys    *services.KeyringService
	streams Streams
}

func NewHandler(apps services.AppService, history services.ChatHistoryService, users services.UserService, keys *services.KeyringService, streams Streams) *Handler {
	return &Handler{apps: apps, history: history, users: users, keys: keys, streams: streams}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.registerUser)
		r.Get("/users/{id}", h.getUser)

		r.Post("/apps", h.createApp)
		r.Get("/apps", h.listApps)
		r.Get("/apps/{id}", h.getApp)
		r.Patch("/apps/{id}", h.renameApp)
		r.Delete("/apps/{id}", h.deleteApp)
		r.Get("/apps/{id}/chat", h.chat)
		r.Get("/apps/{id}/history", h.listHistory)

		r.Get("/keys", h.listKeys)
		r.Put("/keys/{provider}", h.storeKey)
		r.Delete("/keys/{provider}", h.deleteKey)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case errors.Is(err, repositories.ErrAppNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, services.ErrNotOwner):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, fallback, err)
	}
}

func idParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.users.Register(r.Context(), req.Account, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) createApp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      uint   `json:"userId"`
		InitPrompt  string `json:"initPrompt"`
		CodeGenType string `json:"codeGenType"`
		Provider    string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	genType, err := models.ParseCodeGenType(req.CodeGenType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	provider, err := client.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	app, err := h.apps.CreateApp(r.Context(), req.UserID, req.InitPrompt, genType, provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) listApps(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "userId", 0)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("userId is required"))
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	apps, err := h.apps.ListByUser(r.Context(), uint(userID), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) getApp(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) renameApp(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		UserID uint   `json:"userId"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	app, err := h.apps.Rename(r.Context(), id, req.UserID, req.Name)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) deleteApp(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	userID, err := queryInt(r, "userId", 0)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("userId is required"))
		return
	}
	if err := h.apps.Delete(r.Context(), id, uint(userID)); err != nil {
		writeServiceError(w, err, http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// chat streams a generation over SSE. With a message it starts a new
// generation; without one it re-attaches to the app's in-flight generation.
// Frames published before the subscription are not replayed.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	q := r.URL.Query()
	message := q.Get("message")

	// Without a message this is a re-attach to the in-flight generation;
	// with one it starts a generation whose subscription is handed back
	// already attached, so the initiator sees the stream from its first frame.
	var frames <-chan codegen.Frame
	if message == "" {
		topic, ok := h.apps.ActiveTopic(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no generation in progress for app %d", id))
			return
		}
		attached, err := h.streams.SubscribeTopic(r.Context(), topic)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		frames = attached
	} else {
		userID, err := queryInt(r, "userId", 0)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("userId is required"))
			return
		}
		provider, err := client.ParseProvider(q.Get("provider"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		_, started, err := h.apps.ChatToGenCode(r.Context(), id, uint(userID), message, provider)
		if err != nil {
			writeServiceError(w, err, http.StatusConflict)
			return
		}
		frames = started
	}

	streamSSE(w, r, frames)
}

// streamSSE relays broadcast frames to the client until the stream
// terminates or the client disconnects. The generation itself is unaffected
// by a disconnect.
func streamSSE(w http.ResponseWriter, r *http.Request, frames <-chan codegen.Frame) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-frames:
			if !open {
				return
			}
			switch frame.Kind {
			case codegen.FrameChunk:
				data, err := json.Marshal(map[string]string{"d": frame.Data})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
			case codegen.FrameError:
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", frame.Data)
				flusher.Flush()
				return
			case codegen.FrameDone:
				fmt.Fprintf(w, "event: done\ndata: [DONE]\n\n")
				flusher.Flush()
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid before cursor: %w", err))
			return
		}
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rows, err := h.history.ListBefore(r.Context(), id, before, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	next := ""
	if len(rows) > 0 {
		next = rows[len(rows)-1].CreatedAt.Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": rows,
		"next":     next,
	})
}

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.ListApiKeys()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if keys == nil {
		keys = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *Handler) storeKey(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.keys.StoreApiKey(provider, []byte(req.APIKey)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteKey(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if err := h.keys.DeleteApiKey(provider); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
