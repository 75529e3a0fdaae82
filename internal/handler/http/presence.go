package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/presensia/presence-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presence-backend-go/internal/handler/http/response"
	"github.com/presensia/presence-backend-go/internal/pkg/jwt"
	livecache "github.com/presensia/presence-backend-go/internal/pkg/presence"
	"github.com/presensia/presence-backend-go/internal/pkg/sse"
)

type PresenceHandler interface {
	Live(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type presenceHandlerImpl struct {
	cache      *livecache.Cache
	hub        *sse.Hub
	jwtService jwt.Service
}

func NewPresenceHandler(cache *livecache.Cache, hub *sse.Hub, jwtService jwt.Service) PresenceHandler {
	return &presenceHandlerImpl{
		cache:      cache,
		hub:        hub,
		jwtService: jwtService,
	}
}

// Live implements PresenceHandler. Returns the cached real-time view of all
// currently reporting employees in the caller's tenant.
func (h *presenceHandlerImpl) Live(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	live, err := h.cache.ListByTenant(r.Context(), identity.TenantID)
	if err != nil {
		response.InternalServerError(w, "Failed to read live presence")
		return
	}

	response.Success(w, live)
}

// Stream implements PresenceHandler. SSE connection for dashboard clients;
// EventSource cannot set an Authorization header, so the short-lived events
// token arrives as a query parameter.
func (h *presenceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	tenantID, err := h.jwtService.ValidateEventsToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(tenantID)
	defer cleanup()
	slog.Debug("Presence stream connected", "tenant_id", tenantID, "subscribers", h.hub.SubscriberCount(tenantID))

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
