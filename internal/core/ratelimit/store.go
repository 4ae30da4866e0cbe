package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrQuotaExceeded 當日配額已用完，計數未增加
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// DayLayout 計數紀錄的日期格式（UTC）
const DayLayout = "2006-01-02"

// Store 每日計數的持久化後端
//
// IncrementIfUnderQuota 必須是單一原子操作：計數小於 quota 時加一並返回新值，
// 否則返回 ErrQuotaExceeded 且不修改計數。紀錄以 (userID, day) 為鍵，
// 新的一天自然從 0 開始。
type Store interface {
	GetStatus(ctx context.Context, userID, day string) (int, error)
	IncrementIfUnderQuota(ctx context.Context, userID, day string, quota int) (int, error)
	Ping(ctx context.Context) error
	Name() string
}

// DayOf 返回 t 所在的 UTC 日期
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// NextUTCMidnight 返回 t 之後的下一個 UTC 午夜
func NextUTCMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// dayEnd 返回 day 結束的時間點
func dayEnd(day string) (time.Time, error) {
	start, err := time.ParseInLocation(DayLayout, day, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 0, 1), nil
}
