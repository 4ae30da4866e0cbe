package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind 外部 API 錯誤分類
type Kind string

const (
	KindUnconfigured   Kind = "unconfigured"
	KindTransport      Kind = "transport"
	KindRateLimited    Kind = "rate_limited"
	KindQuotaExceeded  Kind = "quota_exceeded"
	KindInvalidRequest Kind = "invalid_request"
	KindUnauthorized   Kind = "unauthorized"
	KindMalformed      Kind = "malformed"
)

// Error 外部 API 錯誤
type Error struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 以分類比對
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Provider == "" || t.Provider == e.Provider)
}

// 依分類比對用的哨兵錯誤
var (
	ErrUnconfigured   = &Error{Kind: KindUnconfigured}
	ErrTransport      = &Error{Kind: KindTransport}
	ErrRateLimited    = &Error{Kind: KindRateLimited}
	ErrQuotaExceeded  = &Error{Kind: KindQuotaExceeded}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrMalformed      = &Error{Kind: KindMalformed}
)

// KindOf 取得錯誤分類，非外部 API 錯誤返回空字串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func unconfigured(provider, what string) error {
	return &Error{Provider: provider, Kind: KindUnconfigured, Err: fmt.Errorf("%s is not set", what)}
}

func transport(provider string, err error) error {
	return &Error{Provider: provider, Kind: KindTransport, Err: err}
}

func malformed(provider string, format string, args ...interface{}) error {
	return &Error{Provider: provider, Kind: KindMalformed, Err: fmt.Errorf(format, args...)}
}

// fromStatus 依 HTTP 狀態碼分類錯誤
func fromStatus(provider string, status int, body []byte) error {
	kind := KindTransport
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusPaymentRequired:
		kind = KindQuotaExceeded
	case http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusBadRequest:
		kind = KindInvalidRequest
	}
	return &Error{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf("upstream responded: %s", truncate(string(body), 200)),
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
