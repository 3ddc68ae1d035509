package services

import "time"

func nowPlusDays(days int) time.Time {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour)
}
