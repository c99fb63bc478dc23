package logging

import "regexp"

var (
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

// Redact masks email addresses and phone-number-like digit runs in s.
func Redact(s string) string {
	s = emailRE.ReplaceAllString(s, "[email]")
	s = phoneRE.ReplaceAllString(s, "[phone]")
	return s
}

// RedactPhone keeps the last two digits of a phone number for correlation.
func RedactPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	return "****" + phone[len(phone)-2:]
}
