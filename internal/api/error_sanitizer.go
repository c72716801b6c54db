package api

import (
	"net/http"
	"strings"

	"github.com/ignite/person-api/internal/pkg/httputil"
	"github.com/ignite/person-api/internal/pkg/logger"
)

// sanitizedError logs the full internal error and returns a public-safe message.
// Use this whenever a 500-level error would otherwise include err.Error() in the response.
func sanitizedError(code int, internalErr error, publicMsg string) string {
	if internalErr != nil {
		logger.Error(publicMsg, "status", code, "error", internalErr)
	}
	return publicMsg
}

// respondSafeError logs the internal error and sends a sanitized
// {"error": ...} response to the client.
func respondSafeError(w http.ResponseWriter, code int, internalErr error, publicMsg string) {
	httputil.Error(w, code, sanitizedError(code, internalErr, publicMsg))
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
// For 400-level errors, the original message is typically fine (user input issues).
// For 500-level errors, this returns a generic safe message.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "insert") ||
		strings.Contains(errStr, "update") ||
		strings.Contains(errStr, "delete") ||
		strings.Contains(errStr, "transaction") ||
		strings.Contains(errStr, "begin tx") ||
		strings.Contains(errStr, "commit tx"):
		return "A database error occurred"

	default:
		return "An internal error occurred"
	}
}
