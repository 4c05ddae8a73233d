package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor represents a decoded pagination cursor
type Cursor struct {
	LastKey   string
	Timestamp time.Time
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
)

// EncodeCursor creates a URL-safe cursor from the sort timestamp and the key
// of the last item. The timestamp goes first so keys may contain the separator.
func EncodeCursor(lastKey string, timestamp time.Time) string {
	if lastKey == "" {
		return ""
	}
	raw := timestamp.UTC().Format(time.RFC3339Nano) + "|" + lastKey
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a cursor produced by EncodeCursor. An empty cursor
// decodes to nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastKey:   parts[1],
		Timestamp: timestamp,
	}, nil
}

// ClampLimit returns limit bounded to [1, MaxLimit], using DefaultLimit for
// non-positive values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Paginate trims a result set fetched with limit+1 rows and builds the next
// cursor from the last kept item.
func Paginate[T any](items []T, limit int, getKey func(T) string, getTimestamp func(T) time.Time) *PageResult[T] {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	if items == nil {
		items = []T{}
	}

	var next string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next = EncodeCursor(getKey(last), getTimestamp(last))
	}

	return &PageResult[T]{
		Items:   items,
		Cursor:  next,
		HasMore: hasMore,
	}
}
