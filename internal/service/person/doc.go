// Package person implements the person registry: validation of incoming
// Person payloads and the write paths that keep a Person and its owned
// Address consistent.
//
// Every create, update and delete touches two tables. The service runs
// those statements inside a single unit of work obtained from Store.WithinTx.
// When the store is configured for non-atomic writes the service falls back
// to compensating statements instead (see Service.Create and Service.Update).
//
// The service layer depends only on the interfaces defined in repository.go.
// It never imports net/http or database/sql directly.
package person
