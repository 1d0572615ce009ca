package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func RecordStatusKey(recordID uuid.UUID) string {
	return fmt.Sprintf("record:%s", recordID)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}
