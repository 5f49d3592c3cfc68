package redis

import (
	"fmt"
	"strconv"
	"time"
)

func floodKey(userID int64) string {
	return fmt.Sprintf("flood:%d", userID)
}

// usageKey buckets usage by UTC calendar day.
func usageKey(userID string, now time.Time) string {
	return "usage:" + userID + ":" + now.UTC().Format("20060102")
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
