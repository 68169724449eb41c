package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmarchuk/otprelay/pkg/models"
)

func record(otp, phone, service string) *models.MessageRecord {
	return &models.MessageRecord{
		PhoneNumber: phone,
		ServiceName: service,
		OTPCode:     otp,
		RawText:     "code: " + otp,
		ObservedAt:  time.Date(2025, 6, 1, 14, 30, 45, 0, time.UTC),
	}
}

func TestFormatRecords_Empty(t *testing.T) {
	f := NewTelegramFormatter()
	assert.Equal(t, "No new OTPs found.", f.FormatRecords(nil))
}

func TestFormatRecords_Single(t *testing.T) {
	f := NewTelegramFormatter()

	msg := f.FormatRecords([]*models.MessageRecord{record("123456", "+15551234567", "Google")})

	assert.Contains(t, msg, "New OTP Received")
	assert.Contains(t, msg, "<code>123456</code>")
	assert.Contains(t, msg, "<code>+15551234567</code>")
	assert.Contains(t, msg, "<b>Google</b>")
	assert.Contains(t, msg, "14:30:45")
}

func TestFormatRecords_Batch(t *testing.T) {
	f := NewTelegramFormatter()

	msg := f.FormatRecords([]*models.MessageRecord{
		record("111111", "+15551111111", "Facebook"),
		record("222222", "+15552222222", "Discord"),
	})

	assert.Contains(t, msg, "2 New OTPs Received")
	assert.Contains(t, msg, "<b>1.</b> <code>111111</code>")
	assert.Contains(t, msg, "<b>2.</b> <code>222222</code>")
	assert.Contains(t, msg, "Facebook")
	assert.Contains(t, msg, "Discord")
}

func TestFormatRecords_EscapesHTML(t *testing.T) {
	f := NewTelegramFormatter()

	msg := f.FormatRecords([]*models.MessageRecord{record("4321", "+15551234567", "<b>Evil & Co</b>")})

	assert.NotContains(t, msg, "<b>Evil")
	assert.Contains(t, msg, "&lt;b&gt;Evil &amp; Co&lt;/b&gt;")
}

func TestFormatStatus(t *testing.T) {
	f := NewTelegramFormatter()

	msg := f.FormatStatus(true, "0d 2h 15m", "2025-06-01 14:30:00", 42, 7)

	assert.Contains(t, msg, "<b>Online</b>")
	assert.Contains(t, msg, "0d 2h 15m")
	assert.Contains(t, msg, "<b>42</b>")
	assert.Contains(t, msg, "7 items")
}
