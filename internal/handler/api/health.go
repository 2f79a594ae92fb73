package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	domainrepo "TraderGenie/internal/domain/repository"
	xhttp "TraderGenie/pkg/http"
)

type HealthHandler struct {
	store domainrepo.SignalStore
	now   func() time.Time
}

func NewHealthHandler(store domainrepo.SignalStore) *HealthHandler {
	return &HealthHandler{store: store, now: time.Now}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", h.Health)
	e.GET("/api", h.Root)
}

type healthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *HealthHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"message": "TraderGenie API", "version": "1.0.0"})
}

// Health reports "degraded" when the signal store does not answer; the
// scan path keeps working without it.
func (h *HealthHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "healthy", Service: "TraderGenie", Timestamp: h.now().UTC()}
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		res.Components = map[string]string{"signal_store": "ok"}
		if err := h.store.Health(ctx); err != nil {
			res.Status = "degraded"
			res.Components["signal_store"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, res)
}
