package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the keyset resume point of a feed: the (updatedAt, id) pair of the
// last row a client has seen. Feeds are ordered by updatedAt DESC, id DESC, so
// the id must be unique within the filtered candidate set.
//
// On the wire a cursor is an opaque base64url token; it is not signed. A forged
// cursor can only select a different slice of rows the base filter already
// allows.
type Cursor struct {
	ID        string
	UpdatedAt time.Time
}

type cursorWire struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// After reports whether k sorts strictly after c in feed order, i.e. whether a
// row at k belongs to the page that follows cursor c.
func (k Cursor) After(c Cursor) bool {
	if k.UpdatedAt.Equal(c.UpdatedAt) {
		return k.ID < c.ID
	}
	return k.UpdatedAt.Before(c.UpdatedAt)
}

// CompareKeys orders two keys newest first, breaking timestamp ties by id
// descending. It returns 0 only for identical keys.
func CompareKeys(a, b Cursor) int {
	switch {
	case a.After(b):
		return 1
	case b.After(a):
		return -1
	default:
		return 0
	}
}

// Encode returns the opaque token for c.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(cursorWire{ID: c.ID, UpdatedAt: c.UpdatedAt.UTC()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(s string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if w.ID == "" || w.UpdatedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing id or updatedAt", ErrInvalidCursor)
	}
	return &Cursor{ID: w.ID, UpdatedAt: w.UpdatedAt.UTC()}, nil
}

// MarshalJSON renders the cursor as its opaque token.
func (c Cursor) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Encode())
}

// UnmarshalJSON accepts the opaque token form.
func (c *Cursor) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	d, err := DecodeCursor(s)
	if err != nil {
		return err
	}
	*c = *d
	return nil
}
