package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_OmitsDefaults(t *testing.T) {
	c := NewCodec(State{})

	assert.Equal(t, "", c.Encode(State{Page: 1, PageSize: DefaultPageSize}))
	assert.Equal(t, "page=3", c.Encode(State{Page: 3, PageSize: DefaultPageSize}))
	assert.Equal(t,
		"name=java&page=2&pageSize=20&sort=-createdDate&status=1",
		c.Encode(State{
			Filter:   map[string]string{"name": "java", "status": "1", "empty": ""},
			Page:     2,
			PageSize: 20,
			Sort:     &Sort{Field: "createdDate", Desc: true},
		}),
	)
}

func TestDecode_CoercesAndFallsBack(t *testing.T) {
	c := NewCodec(State{PageSize: 10})

	tests := []struct {
		name string
		raw  string
		want State
	}{
		{"empty", "", State{Page: 1, PageSize: 10}},
		{"leading question mark", "?page=4", State{Page: 4, PageSize: 10}},
		{"non numeric page", "page=abc&pageSize=x", State{Page: 1, PageSize: 10}},
		{"negative page", "page=-2", State{Page: 1, PageSize: 10}},
		{"zero page size", "pageSize=0", State{Page: 1, PageSize: 10}},
		{"malformed escape", "name=%zz&page=2", State{Page: 1, PageSize: 10}},
		{"filters and sort", "name=go&sort=name&page=2", State{
			Filter:   map[string]string{"name": "go"},
			Page:     2,
			PageSize: 10,
			Sort:     &Sort{Field: "name"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Decode(tt.raw)
			assert.True(t, tt.want.Equal(got), "Decode(%q) = %+v, want %+v", tt.raw, got, tt.want)
		})
	}
}

func TestDecode_RestrictsFilters(t *testing.T) {
	c := NewCodec(State{}, "name", "status")

	got := c.Decode("name=a&status=1&injected=x")
	assert.Equal(t, map[string]string{"name": "a", "status": "1"}, got.Filter)
}

func TestRoundTrip(t *testing.T) {
	codecs := map[string]*Codec{
		"plain":          NewCodec(State{}),
		"default sort":   NewCodec(State{PageSize: 25, Sort: &Sort{Field: "id", Desc: true}}),
		"default filter": NewCodec(State{Filter: map[string]string{"status": "1"}}),
	}
	states := []State{
		{Page: 1, PageSize: 10},
		{Page: 7, PageSize: 25},
		{Page: 2, PageSize: 50, Filter: map[string]string{"name": "a b&c", "status": "-1"}},
		{Page: 1, PageSize: 10, Sort: &Sort{Field: "name"}},
		{Page: 3, PageSize: 10, Sort: &Sort{Field: "fee", Desc: true}, Filter: map[string]string{"q": "ü"}},
		{Page: 1, PageSize: 25},
		{Page: 1, PageSize: 10, Filter: map[string]string{"status": "1"}},
		{Page: 1, PageSize: 10, Filter: map[string]string{"status": "0", "name": "go"}},
	}

	for name, c := range codecs {
		for _, s := range states {
			encoded := c.Encode(s)
			decoded := c.Decode(encoded)
			require.True(t, s.Equal(decoded), "%s: Decode(Encode(%+v)) = %+v (encoded %q)", name, s, decoded, encoded)
		}
	}
}

func TestEncode_ClearedDefaultFilter(t *testing.T) {
	c := NewCodec(State{Filter: map[string]string{"status": "1"}}, "name", "status")

	assert.Equal(t, "", c.Encode(c.Default()))
	assert.Equal(t, "status=", c.Encode(State{Page: 1, PageSize: DefaultPageSize}))
	assert.Equal(t, "name=go&status=", c.Encode(Merge(c.Default(), map[string]string{"name": "go", "status": ""})))

	got := c.Decode("status=")
	assert.Empty(t, got.Filter)
	assert.Equal(t, map[string]string{"status": "1"}, c.Decode("").Filter)
}

func TestMerge_ResetsPage(t *testing.T) {
	s := State{Page: 5, PageSize: 10, Filter: map[string]string{"status": "1", "name": "old"}}

	got := Merge(s, map[string]string{"name": "new", "status": ""})

	assert.Equal(t, 1, got.Page)
	assert.Equal(t, map[string]string{"name": "new"}, got.Filter)
	// input is not mutated
	assert.Equal(t, 5, s.Page)
	assert.Equal(t, "old", s.Filter["name"])
}

func TestNormalize(t *testing.T) {
	c := NewCodec(State{PageSize: 15})

	got := c.Normalize(State{Page: 0, PageSize: -1, Filter: map[string]string{"a": ""}})

	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 15, got.PageSize)
	assert.Empty(t, got.Filter)
}

func TestParseSort(t *testing.T) {
	assert.Nil(t, ParseSort(""))
	assert.Nil(t, ParseSort("-"))
	assert.Equal(t, &Sort{Field: "name", Desc: true}, ParseSort("-name"))
	assert.Equal(t, "-name", Sort{Field: "name", Desc: true}.String())
}
