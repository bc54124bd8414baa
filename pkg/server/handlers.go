package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"keygate-hq/keygate/pkg/credential"
	"keygate-hq/keygate/pkg/gate"
	"keygate-hq/keygate/pkg/registry"
	"keygate-hq/keygate/pkg/usage"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// healthHandler answers liveness probes.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// dataHandler is the protected data plane endpoint. It runs behind the
// admission gate, so the identity is always present in the context.
type dataHandler struct {
	recorder UsageRecorder
}

// UsageRecorder receives one usage record per admitted request. A nil
// recorder disables recording.
type UsageRecorder interface {
	Record(keyID, clientID, endpoint string, statusCode int)
}

func (h *dataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := gate.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rw := newResponseWriter(w)
	writeJSON(rw, http.StatusOK, map[string]any{
		"message":   "authorized",
		"client_id": identity.ClientID,
		"served_at": time.Now().UTC().Format(time.RFC3339),
	})

	if h.recorder != nil {
		h.recorder.Record(identity.KeyID, identity.ClientID, r.URL.Path, rw.statusCode)
	}
}

// adminHandlers implements the provisioning and reporting plane.
type adminHandlers struct {
	registry *registry.Registry
	usage    usage.Storage
	logger   *slog.Logger
}

type createClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toClientResponse(c *registry.Client) clientResponse {
	return clientResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

// createClient handles POST /admin/clients.
func (h *adminHandlers) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.registry.ProvisionClient(r.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidClient) {
			writeError(w, http.StatusBadRequest, "name and email are required")
			return
		}
		h.logger.Error("failed to create client", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(client))
}

// listClients handles GET /admin/clients.
func (h *adminHandlers) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.registry.ListClients(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": out})
}

type createKeyRequest struct {
	ClientID   string `json:"client_id"`
	DailyLimit int64  `json:"daily_limit"`
}

type createKeyResponse struct {
	KeyID      string `json:"key_id"`
	ClientID   string `json:"client_id"`
	APIKey     string `json:"api_key"`
	DailyLimit int64  `json:"daily_limit"`
}

// createKey handles POST /admin/keys. The raw key appears in this response
// and nowhere else; only its fingerprint is stored.
func (h *adminHandlers) createKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key, raw, err := h.registry.ProvisionKey(r.Context(), req.ClientID, req.DailyLimit)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidLimit):
			writeError(w, http.StatusBadRequest, "daily_limit must be positive")
		case errors.Is(err, registry.ErrClientNotFound):
			writeError(w, http.StatusNotFound, "client not found")
		default:
			h.logger.Error("failed to create key", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		KeyID:      key.KeyID,
		ClientID:   key.ClientID,
		APIKey:     raw,
		DailyLimit: key.DailyLimit,
	})
}

type disableKeyRequest struct {
	APIKey string `json:"api_key"`
}

// disableKey handles POST /admin/keys/disable.
func (h *adminHandlers) disableKey(w http.ResponseWriter, r *http.Request) {
	var req disableKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fingerprint, err := credential.Fingerprint(req.APIKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	key, err := h.registry.DisableKey(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, registry.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "key not found")
			return
		}
		h.logger.Error("failed to disable key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key_id":   key.KeyID,
		"disabled": true,
	})
}

// clientUsage handles GET /admin/usage/{client_id}, reporting per-endpoint
// request counts for one client.
func (h *adminHandlers) clientUsage(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")

	if _, err := h.registry.GetClient(r.Context(), clientID); err != nil {
		if errors.Is(err, registry.ErrClientNotFound) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		h.logger.Error("failed to look up client", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.usage == nil {
		writeError(w, http.StatusNotFound, "usage recording is disabled")
		return
	}

	summaries, err := h.usage.SummarizeByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to summarize usage", "error", err, "client_id", clientID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": clientID,
		"usage":     summaries,
	})
}
