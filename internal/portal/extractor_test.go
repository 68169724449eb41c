package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchuk/otprelay/internal/parser"
)

const sampleMarkup = `
<html><body>
<table>
<tr><th>Number</th><th>Service</th><th>Message</th></tr>
<tr><td>8801712345678</td><td>whatsapp</td><td>Your WhatsApp code: 123456</td></tr>
<tr><td>+15551234567</td><td>Google</td><td>G-654321 is your Google verification code</td></tr>
<tr><td>incomplete row</td></tr>
<tr><td>8801811111111</td><td>promo</td><td>Big summer sale, everything must go</td></tr>
</table>
</body></html>`

func newTestExtractor() *Extractor {
	e := NewExtractor(parser.NewCodeDetector())
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractor_Extract(t *testing.T) {
	extractor := newTestExtractor()

	records, err := extractor.Extract(sampleMarkup)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "+8801712345678", records[0].PhoneNumber)
	assert.Equal(t, "WhatsApp", records[0].ServiceName)
	assert.Equal(t, "123456", records[0].OTPCode)
	assert.Equal(t, "Your WhatsApp code: 123456", records[0].RawText)

	assert.Equal(t, "+15551234567", records[1].PhoneNumber)
	assert.Equal(t, "Google", records[1].ServiceName)
	assert.Equal(t, "654321", records[1].OTPCode)
}

func TestExtractor_Extract_Deterministic(t *testing.T) {
	extractor := newTestExtractor()

	first, err := extractor.Extract(sampleMarkup)
	require.NoError(t, err)
	second, err := extractor.Extract(sampleMarkup)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractor_Extract_NoRows(t *testing.T) {
	extractor := newTestExtractor()

	records, err := extractor.Extract("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractor_Extract_HeaderOnly(t *testing.T) {
	extractor := newTestExtractor()

	records, err := extractor.Extract("<table><tr><td>a</td><td>b</td><td>c: 123456</td></tr></table>")
	require.NoError(t, err)
	assert.Empty(t, records, "first row is always treated as header")
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"008801712345678", "+008801712345678"},
		{"8801712345678", "+8801712345678"},
		{"17185551234", "+17185551234"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"12345", "12345"},
		{"", "unknown"},
		{"n/a", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeService(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fb", "Facebook"},
		{"FB Lite", "Facebook"},
		{"google voice", "Google"},
		{"WHATSAPP", "WhatsApp"},
		{"  telegram  ", "Telegram"},
		{"acme widgets", "Acme Widgets"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeService(tt.input))
		})
	}
}
