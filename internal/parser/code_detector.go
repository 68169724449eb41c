package parser

import "regexp"

// CodeDetector extracts OTP codes from SMS text
type CodeDetector struct {
	patterns []*regexp.Regexp
}

// NewCodeDetector creates a new code detector.
// Patterns are tried in order and the first match wins: an explicit
// "code:"/"otp:"/"pin:"/"verification:" label beats a bare digit run,
// and longer bare runs beat shorter ones.
func NewCodeDetector() *CodeDetector {
	return &CodeDetector{
		patterns: []*regexp.Regexp{
			// Labeled codes: "code: 1234", "OTP-567890", "pin 4321"
			regexp.MustCompile(`(?i)(?:code|otp|pin|verification)[\s:\-]*(\d+)`),
			// Bare digit runs, longest first
			regexp.MustCompile(`\b(\d{6})\b`),
			regexp.MustCompile(`\b(\d{5})\b`),
			regexp.MustCompile(`\b(\d{4})\b`),
		},
	}
}

// Detect returns the OTP code found in text, or false if no pattern matched
func (d *CodeDetector) Detect(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	for _, pattern := range d.patterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) > 1 && match[1] != "" {
			return match[1], true
		}
	}

	return "", false
}
