package api

import (
	"errors"

	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/internal/service/coingecko"
	"TraderGenie/internal/service/gateway"
	xhttp "TraderGenie/pkg/http"
)

// toAppError maps domain errors onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, domainrepo.ErrStrategyNotFound):
		return xhttp.NotFoundError("strategy not found").WithError(err)
	case errors.Is(err, domainrepo.ErrBuiltinImmutable):
		return xhttp.ConflictError("built-in strategies cannot be modified this way").WithError(err)
	case errors.Is(err, domainrepo.ErrStrategyIDTaken):
		return xhttp.ConflictError("strategy id already exists").WithError(err)
	case errors.Is(err, domainrepo.ErrInvalidStrategy):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, coingecko.ErrNotFound):
		return xhttp.NotFoundError("coin not found").WithError(err)
	case errors.Is(err, gateway.ErrUpstreamUnavailable):
		appErr := xhttp.ServiceUnavailableError("market data is temporarily unavailable").WithError(err)
		if errors.Is(err, coingecko.ErrRateLimited) {
			appErr.WithParam("reason", "upstream_rate_limited")
		}
		return appErr
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
