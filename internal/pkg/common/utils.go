package common

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 寫入錯誤響應；附加欄位放在 details 下，不會覆蓋固定欄位
func WriteError(c *gin.Context, err error) {
	ce := AsCustomError(err)

	resp := ErrorResponse{
		Error:   ce.Message,
		Code:    ce.Code,
		Status:  ce.Status,
		Hint:    ce.Hint(),
		Details: ce.Details,
	}

	if reset, ok := ce.Details["reset_time"].(time.Time); ok && ce.Status == http.StatusTooManyRequests {
		retry := int(time.Until(reset).Seconds())
		if retry < 0 {
			retry = 0
		}
		c.Header("Retry-After", strconv.Itoa(retry))
	}

	if ce.Status >= 500 {
		LogError("請求處理失敗",
			zap.String("code", ce.Code),
			zap.Error(ce),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(ce.Status, resp)
}
