package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?page=3&limit=50", nil)
	p := FromRequest(req)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 100, p.Offset) // (3-1) * 50
}

func TestFromRequest_InvalidPage_Negative(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?page=-1", nil)
	p := FromRequest(req)
	assert.Equal(t, 1, p.Page) // falls back to default
}

func TestFromRequest_InvalidPage_Zero(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?page=0", nil)
	p := FromRequest(req)
	assert.Equal(t, 1, p.Page)
}

func TestFromRequest_InvalidPage_NotNumber(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?page=abc", nil)
	p := FromRequest(req)
	assert.Equal(t, 1, p.Page)
}

func TestFromRequest_Limit_MaxCap(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?limit=200", nil)
	p := FromRequest(req)
	assert.Equal(t, 10, p.Limit) // falls back to default (200 > 100)
}

func TestFromRequest_Limit_Exactly100(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?limit=100", nil)
	p := FromRequest(req)
	assert.Equal(t, 100, p.Limit)
}

func TestFromRequest_Limit_Zero(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ratings?limit=0", nil)
	p := FromRequest(req)
	assert.Equal(t, 10, p.Limit)
}

func TestFromRequest_OffsetCalculation(t *testing.T) {
	tests := []struct {
		page   string
		limit  string
		offset int
	}{
		{"1", "10", 0},
		{"2", "10", 10},
		{"3", "25", 50},
		{"5", "20", 80},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ratings?page="+tt.page+"&limit="+tt.limit, nil)
		p := FromRequest(req)
		assert.Equal(t, tt.offset, p.Offset)
	}
}

func TestNewMeta_Basic(t *testing.T) {
	params := Params{Page: 1, Limit: 10, Offset: 0}
	meta := NewMeta(3, params)

	assert.Equal(t, 3, meta.TotalCount)
	assert.Equal(t, 1, meta.CurrentPage)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}

func TestNewMeta_MultiplePages(t *testing.T) {
	params := Params{Page: 2, Limit: 2, Offset: 2}
	meta := NewMeta(10, params)

	assert.Equal(t, 10, meta.TotalCount)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 5, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestNewMeta_LastPage(t *testing.T) {
	params := Params{Page: 3, Limit: 5, Offset: 10}
	meta := NewMeta(11, params)

	assert.Equal(t, 3, meta.TotalPages) // ceil(11/5)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestNewMeta_FirstPage(t *testing.T) {
	params := Params{Page: 1, Limit: 5, Offset: 0}
	meta := NewMeta(20, params)

	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}

func TestNewMeta_Empty(t *testing.T) {
	params := Params{Page: 1, Limit: 10, Offset: 0}
	meta := NewMeta(0, params)

	assert.Equal(t, 0, meta.TotalCount)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}

func TestMeta_TotalCountExcludedFromJSON(t *testing.T) {
	meta := NewMeta(25, Params{Page: 1, Limit: 10})
	data, err := json.Marshal(meta)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "currentPage")
	assert.Contains(t, raw, "totalPages")
	assert.Contains(t, raw, "hasNext")
	assert.Contains(t, raw, "hasPrev")
	assert.NotContains(t, raw, "TotalCount")
}
