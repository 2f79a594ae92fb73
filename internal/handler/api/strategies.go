package api

import (
	"github.com/labstack/echo/v4"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/usecase"
	xhttp "TraderGenie/pkg/http"
	xlogger "TraderGenie/pkg/logger"
)

type StrategiesHandler struct {
	logger *xlogger.Logger
	svc    *usecase.StrategyService
}

func NewStrategiesHandler(logger *xlogger.Logger, svc *usecase.StrategyService) *StrategiesHandler {
	return &StrategiesHandler{logger: logger, svc: svc}
}

func (h *StrategiesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/strategies")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/active", h.Toggle)
	g.DELETE("/:id", h.Delete)
}

func (h *StrategiesHandler) List(c echo.Context) error {
	req := &models.ListStrategiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list, err := h.svc.List(c.Request().Context(), req.ActiveOnly)
	if err != nil {
		h.logger.Error("list strategies failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *StrategiesHandler) Get(c echo.Context) error {
	req := &models.StrategyIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.svc.Get(c.Request().Context(), req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, st)
}

// Create accepts a user-authored or generated strategy definition.
func (h *StrategiesHandler) Create(c echo.Context) error {
	req := &models.CreateStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.svc.Create(c.Request().Context(), req.Strategy())
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.CreatedResponse(c, st)
}

func (h *StrategiesHandler) Toggle(c echo.Context) error {
	req := &models.ToggleStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.svc.Toggle(c.Request().Context(), req.ID, *req.Active)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *StrategiesHandler) Delete(c echo.Context) error {
	req := &models.StrategyIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.svc.Delete(c.Request().Context(), req.ID); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.NoContentResponse(c)
}
