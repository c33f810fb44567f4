// Package subscriber implements the subscriber directory: self-service
// subscribe and unsubscribe, token validation, bulk imports, and segment
// membership management.
package subscriber
