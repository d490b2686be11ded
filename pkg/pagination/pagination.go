// Package pagination implements keyset pagination over (timestamp, id)
// ordered listings, newest first.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params are the paging inputs accepted by list endpoints.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of a page. Rows strictly after it in
// (At DESC, ID DESC) order form the next page.
type Cursor struct {
	At time.Time `json:"t"`
	ID uuid.UUID `json:"id"`
}

// Page is one slice of a listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at
// MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Encode renders the cursor as an opaque URL safe token. A nil cursor
// encodes to the empty string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	raw, _ := json.Marshal(Cursor{At: c.At.UTC(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a token from Encode. A blank token yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.At.IsZero() || c.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Keyset orders query newest first on column then id, resumes after cursor
// when one is given, and fetches one row beyond limit so Trim can tell
// whether another page exists.
func Keyset(query *gorm.DB, column string, cursor *Cursor, limit int) *gorm.DB {
	if cursor != nil {
		query = query.Where(
			fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND id < ?))", column),
			cursor.At, cursor.At, cursor.ID,
		)
	}
	return query.
		Order(column + " DESC").
		Order("id DESC").
		Limit(NormalizeLimit(limit) + 1)
}

// Trim cuts rows fetched through Keyset down to limit and returns the cursor
// for the following page, or nil when rows was the last page.
func Trim[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	size := NormalizeLimit(limit)
	if len(rows) <= size {
		return rows, nil
	}
	next := key(rows[size-1])
	return rows[:size], &next
}
