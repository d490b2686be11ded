// Package dbtypes holds column types the drivers do not map natively.
package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a Postgres uuid[] column. SQLite stores the same text
// literal, so both drivers round trip through {a,b,c}.
type UUIDArray []uuid.UUID

// Scan accepts the array literal as string or bytes. NULL scans to an empty
// array so callers never see a nil slice.
func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("dbtypes: cannot scan %T into UUIDArray", src)
	}

	elems, err := splitArrayLiteral(literal)
	if err != nil {
		return err
	}
	out := make(UUIDArray, 0, len(elems))
	for i, elem := range elems {
		id, err := uuid.Parse(elem)
		if err != nil {
			return fmt.Errorf("dbtypes: element %d %q: %w", i, elem, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}

func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

// splitArrayLiteral unwraps a one dimensional array literal. Elements may be
// double quoted. NULL elements are rejected.
func splitArrayLiteral(literal string) ([]string, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("dbtypes: malformed array literal %q", literal)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	for i, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if strings.EqualFold(part, "null") {
			return nil, fmt.Errorf("dbtypes: NULL element at %d", i)
		}
		parts[i] = part
	}
	return parts, nil
}
