package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestListBody_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems int
		wantTotal Int
	}{
		{"bare array", `[{"name":"a"},{"name":"b"}]`, 2, 0},
		{"data array with pagination", `{"data":[{"name":"a"}],"pagination":{"page":1,"limit":20,"total":41}}`, 1, 41},
		{"nested data object", `{"success":true,"data":{"products":[{"name":"a"}],"pagination":{"totalItems":7,"pages":1}}}`, 1, 7},
		{"meta block", `{"items":[{"name":"a"},{"name":"b"}],"meta":{"count":2}}`, 2, 2},
		{"top level total", `{"customers":[{"name":"a"}],"total":"12"}`, 1, 12},
		{"empty object", `{}`, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l ListBody[item]
			require.NoError(t, json.Unmarshal([]byte(tt.body), &l))
			assert.Len(t, l.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, l.Pagination.Total)
		})
	}
}

func TestPagination_Normalize(t *testing.T) {
	p := Pagination{}.Normalize(3, PageQuery{})
	assert.Equal(t, Pagination{Page: 1, Limit: 3, Total: 3, TotalPages: 1}, p)

	p = Pagination{Total: 45}.Normalize(20, PageQuery{Page: 2, Limit: 20})
	assert.Equal(t, Pagination{Page: 2, Limit: 20, Total: 45, TotalPages: 3}, p)

	p = Pagination{}.Normalize(0, PageQuery{Limit: 10})
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 1}, p)
}

func TestIntAndID(t *testing.T) {
	var v struct {
		A Int `json:"a"`
		B Int `json:"b"`
		C Int `json:"c"`
		D Int `json:"d"`
		I ID  `json:"i"`
		J ID  `json:"j"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":5,"b":"7","c":null,"d":"n/a","i":42,"j":"abc"}`), &v))

	assert.Equal(t, Int(5), v.A)
	assert.Equal(t, Int(7), v.B)
	assert.Equal(t, Int(0), v.C)
	assert.Equal(t, Int(0), v.D)
	assert.Equal(t, ID("42"), v.I)
	assert.Equal(t, "abc", FirstID("", v.J))
}

func TestData(t *testing.T) {
	var wrapped, bare Data[item]
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"name":"wrapped"}}`), &wrapped))
	require.NoError(t, json.Unmarshal([]byte(`{"name":"bare"}`), &bare))

	assert.Equal(t, "wrapped", wrapped.Value.Name)
	assert.Equal(t, "bare", bare.Value.Name)
}
