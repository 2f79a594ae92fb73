package api

import (
	"github.com/labstack/echo/v4"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/usecase"
	xhttp "TraderGenie/pkg/http"
	xlogger "TraderGenie/pkg/logger"
)

type ScannerHandler struct {
	logger  *xlogger.Logger
	scanner *usecase.Scanner
}

func NewScannerHandler(logger *xlogger.Logger, scanner *usecase.Scanner) *ScannerHandler {
	return &ScannerHandler{logger: logger, scanner: scanner}
}

func (h *ScannerHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/scanner")
	g.POST("/scan", h.Scan)
	g.GET("/history", h.History)
}

// Scan runs a scan. An upstream outage still answers 200 with
// degraded=true and no signals.
func (h *ScannerHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.scanner.Scan(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("scan failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScannerHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list, err := h.scanner.History(c.Request().Context(), req.AssetID, req.Limit)
	if err != nil {
		h.logger.Error("signal history failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}
