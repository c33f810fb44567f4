// Package addressimport parses subscriber addresses out of the interchange
// formats operators actually have: CSV exports, vCard contact dumps, and
// LDIF directory extracts.
//
// All parsers produce the same AddressList, which validates and
// deduplicates entries by normalized email. A parser never writes to the
// database; the subscriber service decides what to do with the result.
package addressimport
