package cleanup

import (
	"time"
)

type CleanupRequest struct {
	RetentionHours int `json:"retention_hours"`
}

type CleanupResponse struct {
	DeletedCount   int64     `json:"deleted_count"`
	RetentionHours int       `json:"retention_hours"`
	Before         time.Time `json:"before"`
}
