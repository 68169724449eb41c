package formatter

import (
	"fmt"
	"strings"

	"github.com/dmarchuk/otprelay/pkg/models"
)

// TelegramFormatter renders message records as Telegram HTML
type TelegramFormatter struct{}

// NewTelegramFormatter creates a new Telegram formatter
func NewTelegramFormatter() *TelegramFormatter {
	return &TelegramFormatter{}
}

// FormatRecords renders one outbound message for the given records:
// a fixed notice for zero records, a full template for one record, a
// numbered summary for several. Pure: no I/O, no clock reads.
func (f *TelegramFormatter) FormatRecords(records []*models.MessageRecord) string {
	switch len(records) {
	case 0:
		return "No new OTPs found."
	case 1:
		return f.formatSingle(records[0])
	default:
		return f.formatBatch(records)
	}
}

// FormatStatus renders a pipeline status summary for the operator
func (f *TelegramFormatter) FormatStatus(running bool, uptime, lastCheck string, totalSent, cacheSize int) string {
	state := "Stopped"
	if running {
		state = "Online"
	}

	var sb strings.Builder
	sb.WriteString("🤖 <b>Bot Status</b>\n\n")
	sb.WriteString(fmt.Sprintf("⚡ Status: <b>%s</b>\n", state))
	sb.WriteString(fmt.Sprintf("⏱ Uptime: %s\n", f.escapeHTML(uptime)))
	sb.WriteString(fmt.Sprintf("📨 Total OTPs Sent: <b>%d</b>\n", totalSent))
	sb.WriteString(fmt.Sprintf("🔍 Last Check: %s\n", f.escapeHTML(lastCheck)))
	sb.WriteString(fmt.Sprintf("💾 Cache Size: %d items", cacheSize))
	return sb.String()
}

func (f *TelegramFormatter) formatSingle(r *models.MessageRecord) string {
	var sb strings.Builder
	sb.WriteString("🔐 <b>New OTP Received</b>\n\n")
	sb.WriteString(fmt.Sprintf("🔢 OTP: <code>%s</code>\n", f.escapeHTML(r.OTPCode)))
	sb.WriteString(fmt.Sprintf("📱 Number: <code>%s</code>\n", f.escapeHTML(r.PhoneNumber)))
	sb.WriteString(fmt.Sprintf("🌐 Service: <b>%s</b>\n", f.escapeHTML(r.ServiceName)))
	sb.WriteString(fmt.Sprintf("⏰ Time: %s\n\n", r.ObservedAt.Format("15:04:05")))
	sb.WriteString("<i>Tap the OTP to copy it!</i>")
	return sb.String()
}

func (f *TelegramFormatter) formatBatch(records []*models.MessageRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔐 <b>%d New OTPs Received</b>\n\n", len(records)))

	for i, r := range records {
		sb.WriteString(fmt.Sprintf("<b>%d.</b> <code>%s</code> | %s | <code>%s</code>\n",
			i+1, f.escapeHTML(r.OTPCode), f.escapeHTML(r.ServiceName), f.escapeHTML(r.PhoneNumber)))
	}

	sb.WriteString("\n<i>Tap any OTP to copy it!</i>")
	return sb.String()
}

// escapeHTML escapes HTML special characters for Telegram
func (f *TelegramFormatter) escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
