// Package query converts list page state to and from URL query strings.
//
// The URL is a projection of a list page's State: the state is decoded once
// when a page mounts and re-encoded after every mutation. Encoding is minimal
// (defaults and empty values are omitted) and decoding never fails; anything
// that cannot be parsed falls back to the codec's defaults.
package query

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Reserved query keys. Every other key is treated as a filter.
const (
	KeyPage     = "page"
	KeyPageSize = "pageSize"
	KeySort     = "sort"
)

// DefaultPageSize matches the table size used across the back office.
const DefaultPageSize = 10

// Sort is an optional ordering on one field.
type Sort struct {
	Field string
	Desc  bool
}

// String renders the sort as "field" or "-field".
func (s Sort) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// ParseSort parses "field" or "-field". An empty field yields nil.
func ParseSort(v string) *Sort {
	desc := strings.HasPrefix(v, "-")
	field := strings.TrimPrefix(v, "-")
	if field == "" {
		return nil
	}
	return &Sort{Field: field, Desc: desc}
}

// State is the filter, pagination and sort state driving a list fetch.
type State struct {
	Filter   map[string]string
	Page     int // 1-based
	PageSize int
	Sort     *Sort
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Filter = maps.Clone(s.Filter)
	if s.Sort != nil {
		srt := *s.Sort
		c.Sort = &srt
	}
	return c
}

// Equal reports whether two states describe the same query.
// A nil filter and an empty filter are equal.
func (s State) Equal(o State) bool {
	if s.Page != o.Page || s.PageSize != o.PageSize {
		return false
	}
	if (s.Sort == nil) != (o.Sort == nil) {
		return false
	}
	if s.Sort != nil && *s.Sort != *o.Sort {
		return false
	}
	return len(s.Filter) == len(o.Filter) && maps.Equal(s.Filter, o.Filter)
}

// Codec encodes and decodes State against a set of defaults.
type Codec struct {
	// Defaults are used for missing or unparseable fields and are omitted
	// when encoding.
	Defaults State

	// Filters, when non-empty, restricts decoding to these filter keys.
	Filters []string
}

// NewCodec creates a codec. Non-positive default page and page size are
// replaced with 1 and DefaultPageSize.
func NewCodec(defaults State, filters ...string) *Codec {
	if defaults.Page < 1 {
		defaults.Page = 1
	}
	if defaults.PageSize < 1 {
		defaults.PageSize = DefaultPageSize
	}
	return &Codec{Defaults: defaults.Clone(), Filters: filters}
}

// Default returns a copy of the default state.
func (c *Codec) Default() State {
	return c.Defaults.Clone()
}

// Normalize enforces the page invariants and drops empty filter values.
func (c *Codec) Normalize(s State) State {
	s = s.Clone()
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = c.Defaults.PageSize
	}
	for k, v := range s.Filter {
		if v == "" {
			delete(s.Filter, k)
		}
	}
	return s
}

// Values encodes s as url.Values, omitting default and empty fields.
// A default filter that s clears is written with an empty value.
func (c *Codec) Values(s State) url.Values {
	v := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(s.Filter)) {
		val := s.Filter[k]
		if val == "" || val == c.Defaults.Filter[k] {
			continue
		}
		v.Set(k, val)
	}
	for k, def := range c.Defaults.Filter {
		if def != "" && s.Filter[k] == "" {
			v.Set(k, "")
		}
	}
	if s.Page > 0 && s.Page != c.Defaults.Page {
		v.Set(KeyPage, strconv.Itoa(s.Page))
	}
	if s.PageSize > 0 && s.PageSize != c.Defaults.PageSize {
		v.Set(KeyPageSize, strconv.Itoa(s.PageSize))
	}
	switch {
	case s.Sort != nil && s.Sort.Field != "":
		if c.Defaults.Sort == nil || *c.Defaults.Sort != *s.Sort {
			v.Set(KeySort, s.Sort.String())
		}
	case c.Defaults.Sort != nil:
		// explicit "no sort" overrides a default sort
		v.Set(KeySort, "")
	}
	return v
}

// Encode returns the minimal query string for s (without leading '?').
func (c *Codec) Encode(s State) string {
	return c.Values(s).Encode()
}

// Decode parses a raw query string. It never fails: malformed input or
// fields yield the defaults.
func (c *Codec) Decode(raw string) State {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return c.Default()
	}
	return c.FromValues(v)
}

// FromValues builds a State from already-parsed values.
func (c *Codec) FromValues(v url.Values) State {
	s := c.Default()
	if n, ok := positiveInt(v.Get(KeyPage)); ok {
		s.Page = n
	}
	if n, ok := positiveInt(v.Get(KeyPageSize)); ok {
		s.PageSize = n
	}
	if v.Has(KeySort) {
		s.Sort = ParseSort(v.Get(KeySort))
	}
	for k, vals := range v {
		if k == KeyPage || k == KeyPageSize || k == KeySort {
			continue
		}
		if len(c.Filters) > 0 && !slices.Contains(c.Filters, k) {
			continue
		}
		if len(vals) == 0 || vals[0] == "" {
			// clears a default filter
			delete(s.Filter, k)
			continue
		}
		if s.Filter == nil {
			s.Filter = make(map[string]string)
		}
		s.Filter[k] = vals[0]
	}
	return s
}

// Merge merges filter values into s and resets the page to 1. An empty
// value removes the filter.
func Merge(s State, filter map[string]string) State {
	s = s.Clone()
	if s.Filter == nil {
		s.Filter = make(map[string]string, len(filter))
	}
	for k, v := range filter {
		if v == "" {
			delete(s.Filter, k)
			continue
		}
		s.Filter[k] = v
	}
	s.Page = 1
	return s
}

func positiveInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
