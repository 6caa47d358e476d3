package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Page size bounds accepted by every feed.
const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 20
)

// PageRequest selects one page of a feed. A nil Cursor starts at the newest row.
type PageRequest struct {
	Cursor *Cursor
	Limit  int
}

// Validate rejects limits outside [MinLimit, MaxLimit].
func (p PageRequest) Validate() error {
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidLimit, p.Limit, MinLimit, MaxLimit)
	}
	return nil
}

// ValidateUUIDKey is Validate for feeds whose tiebreak column is a UUID. A
// cursor id that is not a UUID cannot come from such a feed.
func (p PageRequest) ValidateUUIDKey() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Cursor != nil {
		if _, err := uuid.Parse(p.Cursor.ID); err != nil {
			return fmt.Errorf("%w: id is not a UUID", ErrInvalidCursor)
		}
	}
	return nil
}

// Page is one slice of a feed. NextCursor is nil when no rows remain.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *Cursor `json:"nextCursor"`
}

// NewPage builds a page from rows fetched with limit+1. When the extra row is
// present it is dropped and the cursor points at the last row kept.
func NewPage[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	p := Page[T]{Items: rows}
	if len(rows) > limit {
		p.Items = rows[:limit]
		next := key(p.Items[limit-1])
		p.NextCursor = &next
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p
}

// args accumulates positional query arguments.
type args []any

// bind appends v and returns its placeholder.
func (a *args) bind(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// keyset renders the boundary predicate for an (updated DESC, id DESC)
// ordering. It is empty without a cursor.
func keyset(a *args, updatedCol, idCol string, c *Cursor) string {
	if c == nil {
		return ""
	}
	t, id := a.bind(c.UpdatedAt), a.bind(c.ID)
	return fmt.Sprintf("(%[1]s < %[2]s OR (%[1]s = %[2]s AND %[3]s < %[4]s))", updatedCol, t, idCol, id)
}

// pageSpec describes the base candidate set of a feed. Narrowing joins belong
// in from so that LIMIT counts base rows before any decoration is attached.
type pageSpec struct {
	from    string
	where   []string
	updated string
	id      string
	page    PageRequest
}

// sql renders the page query selecting cols, over-fetching by one row.
func (s pageSpec) sql(a *args, cols string) string {
	conds := append([]string(nil), s.where...)
	if k := keyset(a, s.updated, s.id, s.page.Cursor); k != "" {
		conds = append(conds, k)
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(s.from)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s DESC, %s DESC LIMIT %s", s.updated, s.id, a.bind(s.page.Limit+1))
	return b.String()
}
