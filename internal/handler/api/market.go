package api

import (
	"github.com/labstack/echo/v4"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/domain/service"
	xhttp "TraderGenie/pkg/http"
	xlogger "TraderGenie/pkg/logger"
	"TraderGenie/pkg/util"
)

// MarketHandler serves cached CoinGecko lookups.
type MarketHandler struct {
	logger *xlogger.Logger
	market service.MarketData
}

func NewMarketHandler(logger *xlogger.Logger, market service.MarketData) *MarketHandler {
	return &MarketHandler{logger: logger, market: market}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/market")
	g.GET("/prices", h.Prices)
	g.GET("/top-coins", h.TopCoins)
	g.GET("/trending", h.Trending)
	g.GET("/coin/:coin_id", h.Coin)
	g.GET("/global", h.Global)
}

func (h *MarketHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	batch, err := h.market.Prices(c.Request().Context(), util.SplitCSV(req.IDs), req.VsCurrency)
	if err != nil {
		h.logger.Error("prices lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	setCacheHeaders(c, batch.Stale)
	return xhttp.SuccessResponse(c, batch)
}

func (h *MarketHandler) TopCoins(c echo.Context) error {
	req := &models.TopCoinsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	batch, err := h.market.TopCoins(c.Request().Context(), req.Limit, req.VsCurrency)
	if err != nil {
		h.logger.Error("top coins lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	setCacheHeaders(c, batch.Stale)
	return xhttp.SuccessResponse(c, batch)
}

func (h *MarketHandler) Trending(c echo.Context) error {
	batch, err := h.market.Trending(c.Request().Context())
	if err != nil {
		h.logger.Error("trending lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	setCacheHeaders(c, batch.Stale)
	return xhttp.SuccessResponse(c, batch)
}

func (h *MarketHandler) Coin(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	coin, err := h.market.Coin(c.Request().Context(), req.ID, req.VsCurrency)
	if err != nil {
		h.logger.Error("coin lookup failed", xlogger.String("coin_id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	setCacheHeaders(c, coin.Stale)
	return xhttp.SuccessResponse(c, coin)
}

func (h *MarketHandler) Global(c echo.Context) error {
	req := &models.GlobalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	global, err := h.market.Global(c.Request().Context(), req.VsCurrency)
	if err != nil {
		h.logger.Error("global lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	setCacheHeaders(c, global.Stale)
	return xhttp.SuccessResponse(c, global)
}

func setCacheHeaders(c echo.Context, stale bool) {
	if stale {
		c.Response().Header().Set("Warning", `110 - "Response is Stale"`)
		return
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
}
