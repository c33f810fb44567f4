package addressimport

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseVCard reads a stream of vCard entries. FN supplies the name (falling
// back to a reassembled N), the first EMAIL property supplies the address,
// and ADR contributes city, postal code and country when present.
func ParseVCard(r io.Reader, ignoreErrors bool) ([]Address, error) {
	list := NewAddressList(ignoreErrors)
	scanner := bufio.NewScanner(r)

	var cur *Address
	card := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		prop, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		switch prop {
		case "BEGIN":
			if strings.EqualFold(value, "VCARD") {
				card++
				cur = &Address{}
			}
		case "END":
			if cur == nil || !strings.EqualFold(value, "VCARD") {
				continue
			}
			if err := list.Add(*cur); err != nil {
				return nil, fmt.Errorf("vcard %d: %w", card, err)
			}
			cur = nil
		case "FN":
			if cur != nil {
				cur.Name = value
			}
		case "N":
			// Family;Given;Additional;Prefix;Suffix. FN wins when both exist.
			if cur != nil && cur.Name == "" {
				parts := strings.Split(value, ";")
				var names []string
				if len(parts) > 1 && parts[1] != "" {
					names = append(names, parts[1])
				}
				if parts[0] != "" {
					names = append(names, parts[0])
				}
				cur.Name = strings.Join(names, " ")
			}
		case "EMAIL":
			if cur != nil && cur.Email == "" {
				cur.Email = value
			}
		case "ADR":
			// PO box;extended;street;locality;region;postal code;country.
			if cur == nil {
				continue
			}
			parts := strings.Split(value, ";")
			if len(parts) > 3 && cur.City == "" {
				cur.City = parts[3]
			}
			if len(parts) > 5 && cur.PostalCode == "" {
				cur.PostalCode = parts[5]
			}
			if len(parts) > 6 && cur.Country == "" {
				cur.Country = parts[6]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vcard: %w", err)
	}
	if cur != nil && !ignoreErrors {
		return nil, fmt.Errorf("vcard %d not terminated", card)
	}

	return list.Addresses(), nil
}

// splitProperty breaks "EMAIL;TYPE=INTERNET:x@y" into ("EMAIL", "x@y").
func splitProperty(line string) (prop, value string, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	// Drop parameters and any group prefix.
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value), true
}
