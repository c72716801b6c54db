// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter calls
// so that every endpoint produces the same JSON formatting and error envelope.
package httputil
