package models

import "time"

// MessageRecord represents one inbound SMS observed on the portal
type MessageRecord struct {
	PhoneNumber string    // normalized, "unknown" when the portal gave none
	ServiceName string    // canonical service name
	OTPCode     string    // extracted numeric code, never empty
	RawText     string    // original message body, kept for audit
	ObservedAt  time.Time // capture time, not portal time
}

// Fingerprint returns the dedup key for the record
func (r *MessageRecord) Fingerprint() string {
	return r.OTPCode + "_" + r.PhoneNumber + "_" + r.ServiceName
}
