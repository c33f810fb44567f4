package addressimport

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// ParseLDIF reads an LDIF directory extract. Each blank-line separated
// record contributes one address: cn supplies the name, mail the email,
// and l, postalCode and c the location fields. Records without a mail
// attribute are skipped; they are usually organizational entries.
func ParseLDIF(r io.Reader, ignoreErrors bool) ([]Address, error) {
	list := NewAddressList(ignoreErrors)
	scanner := bufio.NewScanner(r)

	record := 0
	cur := Address{}
	inRecord := false

	flush := func() error {
		if !inRecord {
			return nil
		}
		inRecord = false
		a := cur
		cur = Address{}
		if a.Email == "" {
			return nil
		}
		if err := list.Add(a); err != nil {
			return fmt.Errorf("ldif record %d: %w", record, err)
		}
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if !inRecord {
			inRecord = true
			record++
		}

		attr, value, ok := splitLDIFAttr(line)
		if !ok {
			continue
		}
		switch strings.ToLower(attr) {
		case "cn":
			if cur.Name == "" {
				cur.Name = value
			}
		case "mail":
			if cur.Email == "" {
				cur.Email = value
			}
		case "l":
			cur.City = value
		case "postalcode":
			cur.PostalCode = value
		case "c", "co":
			cur.Country = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ldif: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return list.Addresses(), nil
}

// splitLDIFAttr parses "attr: value" and the base64 form "attr:: dmFsdWU=".
func splitLDIFAttr(line string) (attr, value string, ok bool) {
	name, rest, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	if strings.HasPrefix(rest, ":") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest[1:]))
		if err != nil {
			return "", "", false
		}
		return name, string(decoded), true
	}
	return name, strings.TrimSpace(rest), true
}
