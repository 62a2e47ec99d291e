package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/types"
	"coinlook-api/pkg/market"
)

const kindInternal = "internal"

// errorHandler renders failures as {"kind","message"}. Gateway failures keep
// their kind and user-facing message.
func errorHandler(ctx context.Context, err error) (int, any) {
	var failure *market.Failure
	if errors.As(err, &failure) {
		return statusFor(failure.Kind), types.ErrorResponse{
			Kind:    string(failure.Kind),
			Message: failure.Message,
		}
	}
	logx.WithContext(ctx).Errorf("unhandled request error: %v", err)
	return http.StatusInternalServerError, types.ErrorResponse{
		Kind:    kindInternal,
		Message: "internal error",
	}
}

func statusFor(kind market.FailureKind) int {
	switch kind {
	case market.KindConfig:
		return http.StatusServiceUnavailable
	case market.KindUpstream:
		return http.StatusBadGateway
	case market.KindNetwork:
		return http.StatusGatewayTimeout
	case market.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// badRequest wraps a request parsing error so it renders with the invalid kind.
func badRequest(err error) error {
	return &market.Failure{Kind: market.KindInvalid, Message: err.Error()}
}
