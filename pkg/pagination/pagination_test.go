package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 30, 0, 123, time.FixedZone("EST", -5*3600))
	id := uuid.New()

	decoded, err := ParseCursor((&Cursor{At: at, ID: id}).Encode())
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.At.Equal(at))
	assert.Equal(t, id, decoded.ID)
}

func TestNilCursorEncodesEmpty(t *testing.T) {
	var c *Cursor
	assert.Equal(t, "", c.Encode())
}

func TestParseCursor(t *testing.T) {
	cursor, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	for _, token := range []string{
		"not-base64!!",
		base64.RawURLEncoding.EncodeToString([]byte("plain text")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-03-01T08:30:00Z"}`)),
	} {
		_, err := ParseCursor(token)
		assert.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 10, NormalizeLimit(10))
}

type row struct {
	at time.Time
	id uuid.UUID
}

func rowKey(r row) Cursor { return Cursor{At: r.at, ID: r.id} }

func TestTrim(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{
		{at: base.Add(2 * time.Hour), id: uuid.New()},
		{at: base.Add(time.Hour), id: uuid.New()},
		{at: base, id: uuid.New()},
	}

	page, next := Trim(rows, 2, rowKey)
	assert.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, rows[1].id, next.ID)

	page, next = Trim(rows, 3, rowKey)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}
