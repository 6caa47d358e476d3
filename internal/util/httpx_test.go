package util

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/api/internal/store"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query string
		want  int
		err   bool
	}{
		{"", store.DefaultLimit, false},
		{"limit=1", 1, false},
		{"limit=100", 100, false},
		{"limit=0", 0, true},
		{"limit=101", 0, true},
		{"limit=-5", 0, true},
		{"limit=ten", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			got, err := ParseLimit(r)
			if tc.err {
				assert.ErrorIs(t, err, store.ErrInvalidLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePage_Cursor(t *testing.T) {
	c := store.Cursor{ID: "abc", UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor="+c.Encode(), nil)

	p, err := ParsePage(r)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Limit)
	require.NotNil(t, p.Cursor)
	assert.Equal(t, "abc", p.Cursor.ID)

	r = httptest.NewRequest(http.MethodGet, "/?cursor=garbage!", nil)
	_, err = ParsePage(r)
	assert.ErrorIs(t, err, store.ErrInvalidCursor)
}

func TestWriteError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusNotFound, CodeNotFound, "video not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "video not found", body.Error.Message)
}
