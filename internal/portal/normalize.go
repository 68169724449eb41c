package portal

import (
	"regexp"
	"strings"
)

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// serviceSynonyms maps raw vendor strings to canonical brand names.
// Checked in order, substring match, first hit wins.
var serviceSynonyms = []struct {
	substr    string
	canonical string
}{
	{"fb", "Facebook"},
	{"facebook", "Facebook"},
	{"google", "Google"},
	{"whatsapp", "WhatsApp"},
	{"telegram", "Telegram"},
	{"instagram", "Instagram"},
	{"twitter", "Twitter"},
	{"linkedin", "LinkedIn"},
	{"tiktok", "TikTok"},
	{"snapchat", "Snapchat"},
	{"discord", "Discord"},
}

// NormalizePhone strips everything except digits and a leading plus.
// Numbers starting with the 88 country indicator, or at least 10 digits
// long, gain a leading plus. Empty input maps to "unknown".
func NormalizePhone(phone string) string {
	cleaned := nonPhoneChars.ReplaceAllString(phone, "")
	if strings.Count(cleaned, "+") > 0 {
		cleaned = "+" + strings.ReplaceAll(cleaned, "+", "")
	}

	if cleaned != "" && !strings.HasPrefix(cleaned, "+") {
		if strings.HasPrefix(cleaned, "88") || len(cleaned) >= 10 {
			cleaned = "+" + cleaned
		}
	}

	if cleaned == "" || cleaned == "+" {
		return "unknown"
	}
	return cleaned
}

// NormalizeService trims and title-cases the raw label, then maps it
// through the synonym table. Unmatched input keeps the title-cased form.
func NormalizeService(service string) string {
	cleaned := strings.TrimSpace(service)
	if cleaned == "" {
		return "Unknown"
	}
	cleaned = titleCase(cleaned)

	lower := strings.ToLower(cleaned)
	for _, syn := range serviceSynonyms {
		if strings.Contains(lower, syn.substr) {
			return syn.canonical
		}
	}

	return cleaned
}

// titleCase uppercases the first letter of each space-separated word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
