package middleware

import (
	"errors"
	"strconv"
	"time"

	"recipe-discovery/internal/core/ratelimit"
	"recipe-discovery/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// 配額響應標頭
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// SetRateLimitHeaders 寫入呼叫者的每日配額標頭
func SetRateLimitHeaders(c *gin.Context, st ratelimit.Status) {
	c.Header(HeaderRateLimitLimit, strconv.Itoa(st.MaxRequests))
	c.Header(HeaderRateLimitRemaining, strconv.Itoa(st.Remaining))
	c.Header(HeaderRateLimitReset, strconv.FormatInt(st.ResetTime.Unix(), 10))
}

// SetRateLimitHeadersFromError 配額用完時從錯誤細節補上標頭
func SetRateLimitHeadersFromError(c *gin.Context, err error) {
	var ce *common.CustomError
	if !errors.As(err, &ce) || ce.Code != common.ErrCodeRateLimitExceeded {
		return
	}
	maxRequests, _ := ce.Details["max_requests"].(int)
	reset, _ := ce.Details["reset_time"].(time.Time)
	SetRateLimitHeaders(c, ratelimit.Status{MaxRequests: maxRequests, Remaining: 0, ResetTime: reset})
}
