package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Status  int                    `json:"status"`
	Hint    string                 `json:"hint,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string                 // 錯誤代碼
	Message string                 // 錯誤信息（對使用者可見）
	Err     error                  // 原始錯誤
	Status  int                    // HTTP 狀態碼
	Details map[string]interface{} // 附加欄位，寫入響應的 details
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrUnauthorized) 可用
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail 返回附帶額外欄位的副本
func (e *CustomError) WithDetail(key string, value interface{}) *CustomError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &CustomError{Code: e.Code, Message: e.Message, Err: e.Err, Status: e.Status, Details: details}
}

// Wrap 返回包裝指定原始錯誤的副本
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Err: err, Status: e.Status, Details: e.Details}
}

// WithMessage 返回替換訊息的副本
func (e *CustomError) WithMessage(message string) *CustomError {
	return &CustomError{Code: e.Code, Message: message, Err: e.Err, Status: e.Status, Details: e.Details}
}

// Hint 告訴使用者應該怎麼做
func (e *CustomError) Hint() string {
	switch e.Code {
	case ErrCodeRateLimitExceeded, ErrCodeUpstreamRateLimited, ErrCodeUpstreamQuotaExceeded, ErrCodeTooManyRequests:
		return "try again later"
	case ErrCodeInvalidRequest, ErrCodePayloadTooLarge:
		return "fix your input"
	case ErrCodeUnauthorized:
		return "sign in again"
	case ErrCodeUpstreamUnavailable, ErrCodeMalformedUpstream:
		return "temporarily unavailable"
	default:
		return ""
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 將任意錯誤轉為 CustomError，未知錯誤視為內部錯誤
func AsCustomError(err error) *CustomError {
	if err == nil {
		return nil
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternal.Wrap(err)
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest        = "INVALID_REQUEST"             // 400
	ErrCodeUnauthorized          = "UNAUTHORIZED"                // 401
	ErrCodeUpstreamQuotaExceeded = "UPSTREAM_QUOTA_EXCEEDED"     // 402
	ErrCodeNotFound              = "NOT_FOUND"                   // 404
	ErrCodePayloadTooLarge       = "PAYLOAD_TOO_LARGE"           // 413
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"         // 429
	ErrCodeUpstreamRateLimited   = "UPSTREAM_RATE_LIMITED"       // 429
	ErrCodeTooManyRequests       = "TOO_MANY_REQUESTS"           // 429
	ErrCodeInternalError         = "INTERNAL_ERROR"              // 500
	ErrCodeMalformedUpstream     = "MALFORMED_UPSTREAM_RESPONSE" // 502
	ErrCodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"        // 503
	ErrCodeRequestTimeout        = "REQUEST_TIMEOUT"             // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest        = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized          = NewError(ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized, nil)
	ErrUpstreamQuotaExceeded = NewError(ErrCodeUpstreamQuotaExceeded, "recipe provider quota exhausted", http.StatusPaymentRequired, nil)
	ErrNotFound              = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrPayloadTooLarge       = NewError(ErrCodePayloadTooLarge, "request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrRateLimitExceeded     = NewError(ErrCodeRateLimitExceeded, "daily request limit reached", http.StatusTooManyRequests, nil)
	ErrUpstreamRateLimited   = NewError(ErrCodeUpstreamRateLimited, "recipe provider is rate limiting requests", http.StatusTooManyRequests, nil)
	ErrTooManyRequests       = NewError(ErrCodeTooManyRequests, "duplicate request", http.StatusTooManyRequests, nil)
	ErrInternal              = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrMalformedUpstream     = NewError(ErrCodeMalformedUpstream, "recipe provider returned an unexpected response", http.StatusBadGateway, nil)
	ErrUpstreamUnavailable   = NewError(ErrCodeUpstreamUnavailable, "recipe provider temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrRequestTimeout        = NewError(ErrCodeRequestTimeout, "request timeout", http.StatusGatewayTimeout, nil)
)
