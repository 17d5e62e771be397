package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]interface{}
		want    Page
		wantErr bool
	}{
		{
			name: "full envelope",
			doc: map[string]interface{}{
				"page": float64(2), "pageSize": float64(100), "maxPageSize": float64(1000), "pageCount": float64(3),
				"results": []interface{}{"a", "b"},
			},
			want: Page{Page: 2, PageSize: 100, MaxPageSize: 1000, PageCount: 3, Results: []interface{}{"a", "b"}},
		},
		{
			name: "missing counters fall back to a single page",
			doc:  map[string]interface{}{"results": []interface{}{"a"}},
			want: Page{Page: 1, PageSize: 1, MaxPageSize: MaxPageSize, PageCount: 1, Results: []interface{}{"a"}},
		},
		{
			name: "string counters",
			doc:  map[string]interface{}{"page": "1", "pageCount": "4", "results": []interface{}{}},
			want: Page{Page: 1, PageSize: 0, MaxPageSize: MaxPageSize, PageCount: 4, Results: []interface{}{}},
		},
		{name: "no results", doc: map[string]interface{}{"page": float64(1)}, wantErr: true},
		{name: "results not a list", doc: map[string]interface{}{"results": "x"}, wantErr: true},
		{name: "bad counter", doc: map[string]interface{}{"results": []interface{}{}, "pageCount": "many"}, wantErr: true},
		{name: "bad counter type", doc: map[string]interface{}{"results": []interface{}{}, "page": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasNext(t *testing.T) {
	assert.True(t, Page{Page: 1, PageCount: 2}.HasNext())
	assert.False(t, Page{Page: 2, PageCount: 2}.HasNext())
	assert.False(t, Page{Page: 1, PageCount: 0}.HasNext())
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, DefaultPageSize, ClampPageSize(-5))
	assert.Equal(t, 250, ClampPageSize(250))
	assert.Equal(t, MaxPageSize, ClampPageSize(5000))
}
