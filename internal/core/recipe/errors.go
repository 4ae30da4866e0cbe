package recipe

import (
	"errors"

	"recipe-discovery/internal/core/provider"
	"recipe-discovery/internal/pkg/common"
)

// upstreamError 將外部 API 錯誤轉為對外的錯誤分類
func upstreamError(err error) error {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		return common.AsCustomError(err)
	}

	var base *common.CustomError
	switch perr.Kind {
	case provider.KindRateLimited:
		base = common.ErrUpstreamRateLimited
	case provider.KindQuotaExceeded:
		base = common.ErrUpstreamQuotaExceeded
	case provider.KindInvalidRequest:
		base = common.ErrInvalidRequest.WithMessage("the recipe provider rejected the request parameters")
	case provider.KindMalformed:
		base = common.ErrMalformedUpstream
	default:
		base = common.ErrUpstreamUnavailable
	}
	return base.WithDetail("provider", perr.Provider).Wrap(err)
}
