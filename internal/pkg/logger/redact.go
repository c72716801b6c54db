package logger

import "strings"

// RedactEmail keeps the first two characters of the local part and the
// domain: "ann.smith@example.com" becomes "an***@example.com". Local parts
// of two characters or less are masked entirely. Anything that is not a
// single-@ address becomes "***@***".
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
