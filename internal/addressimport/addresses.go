package addressimport

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// Address is one parsed subscriber candidate. Name and Email are always
// populated; the location fields are empty when the source format or row
// does not carry them.
type Address struct {
	Name       string
	Email      string
	City       string
	PostalCode string
	Country    string
}

// ErrUnknownFormat rejects an import format this package cannot parse.
var ErrUnknownFormat = errors.New("unknown address import format")

// AddressList accumulates parsed addresses, validating each email and
// deduplicating by normalized email with first occurrence winning.
//
// With ignoreErrors set, invalid entries are dropped silently instead of
// failing the whole import. Duplicates are always dropped silently.
type AddressList struct {
	byEmail      map[string]int
	addresses    []Address
	ignoreErrors bool
}

// NewAddressList creates an empty list.
func NewAddressList(ignoreErrors bool) *AddressList {
	return &AddressList{byEmail: make(map[string]int), ignoreErrors: ignoreErrors}
}

// Add validates and appends one address.
func (l *AddressList) Add(a Address) error {
	a.Email = strings.TrimSpace(a.Email)
	a.Name = strings.TrimSpace(a.Name)

	if a.Email == "" {
		if l.ignoreErrors {
			return nil
		}
		return fmt.Errorf("entry %q has no email address", a.Name)
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		if l.ignoreErrors {
			return nil
		}
		return fmt.Errorf("invalid email address %q: %w", a.Email, err)
	}

	key := domain.NormalizeEmail(a.Email)
	if _, dup := l.byEmail[key]; dup {
		return nil
	}
	l.byEmail[key] = len(l.addresses)
	l.addresses = append(l.addresses, a)
	return nil
}

// Addresses returns the accepted addresses in input order.
func (l *AddressList) Addresses() []Address {
	return l.addresses
}

// Len returns the number of accepted addresses.
func (l *AddressList) Len() int {
	return len(l.addresses)
}

// Parse reads addresses in the named format: "csv", "vcard", or "ldif".
func Parse(r io.Reader, format string, ignoreErrors bool) ([]Address, error) {
	switch strings.ToLower(format) {
	case "csv":
		return ParseCSV(r, ignoreErrors)
	case "vcard", "vcf":
		return ParseVCard(r, ignoreErrors)
	case "ldif":
		return ParseLDIF(r, ignoreErrors)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
