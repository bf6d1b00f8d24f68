package scan

import (
	"time"
)

// Event is the wire message the API service publishes for every resolved
// redirect and the scan worker consumes.
type Event struct {
	QRCodeID  int64     `json:"qr_code_id"`
	Slug      string    `json:"slug"`
	UserAgent string    `json:"user_agent"`
	ClientIP  string    `json:"client_ip"`
	Timestamp time.Time `json:"timestamp"`
}
