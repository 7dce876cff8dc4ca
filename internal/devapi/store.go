// Package devapi is an in-memory backend speaking the envelope protocol,
// for running the back office without a real API.
package devapi

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Record is one stored entity.
type Record = map[string]any

var (
	errNotFound  = errors.New("record not found")
	errDuplicate = errors.New("already exists")
)

// Collection describes how one entity is stored.
type Collection struct {
	Name string
	// UpdateID is the body field carrying the identifier on update.
	UpdateID string
	// Unique is a field whose value must not repeat.
	Unique string
	// Decorate fills derived fields after a create or update.
	Decorate func(s *Store, r Record)
}

type collection struct {
	Collection
	records map[string]Record
}

// Store is a thread-safe in-memory record store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	now         func() time.Time
}

// NewStore creates an empty store with the given collections.
func NewStore(cols ...Collection) *Store {
	s := &Store{collections: make(map[string]*collection, len(cols)), now: time.Now}
	for _, c := range cols {
		s.collections[c.Name] = &collection{Collection: c, records: make(map[string]Record)}
	}
	return s
}

func (s *Store) collection(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, errors.Wrapf(errNotFound, "collection %q", name)
	}
	return c, nil
}

// Create stores a copy of r under a new ID.
func (s *Store) Create(name string, r Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique("", r); err != nil {
		return nil, err
	}

	rec := clone(r)
	rec["id"] = uuid.NewString()
	rec["createdDate"] = s.now().Format("02/01/2006 15:04:05")
	if c.Decorate != nil {
		c.Decorate(s, rec)
	}
	c.records[rec["id"].(string)] = rec
	return clone(rec), nil
}

// Get returns a record by ID.
func (s *Store) Get(name, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, errors.Wrapf(errNotFound, "%s %q", name, id)
	}
	return clone(rec), nil
}

// Update merges r into the record identified by the collection's
// UpdateID field.
func (s *Store) Update(name string, r Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	id := fmt.Sprint(r[cmp.Or(c.UpdateID, "id")])
	rec, ok := c.records[id]
	if !ok {
		return nil, errors.Wrapf(errNotFound, "%s %q", name, id)
	}
	if err := c.checkUnique(id, r); err != nil {
		return nil, err
	}

	for k, v := range r {
		if k == c.UpdateID || k == "id" || k == "createdDate" {
			continue
		}
		rec[k] = v
	}
	if c.Decorate != nil {
		c.Decorate(s, rec)
	}
	return clone(rec), nil
}

// Delete removes a record by ID.
func (s *Store) Delete(name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return err
	}
	if _, ok := c.records[id]; !ok {
		return errors.Wrapf(errNotFound, "%s %q", name, id)
	}
	delete(c.records, id)
	return nil
}

// ListQuery selects one page of a collection. Page is zero-based.
type ListQuery struct {
	Filter map[string]string
	Sort   string // "field,asc" or "field,desc"
	Page   int
	Size   int
}

// List returns the matching records of one page and the total match count.
// Without a sort, records are ordered newest first.
func (s *Store) List(name string, q ListQuery) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, 0, err
	}

	var result []Record
	for _, rec := range c.records {
		if matches(rec, q.Filter) {
			result = append(result, rec)
		}
	}

	field, dir, _ := strings.Cut(q.Sort, ",")
	if field == "" {
		field, dir = "createdDate", "desc"
	}
	slices.SortStableFunc(result, func(a, b Record) int {
		n := compare(a[field], b[field])
		if n == 0 {
			n = strings.Compare(a["id"].(string), b["id"].(string))
		}
		if dir == "desc" {
			return -n
		}
		return n
	})

	total := len(result)
	if q.Size < 1 {
		q.Size = total
	}
	start := min(max(q.Page, 0)*q.Size, total)
	end := min(start+q.Size, total)

	page := make([]Record, 0, end-start)
	for _, rec := range result[start:end] {
		page = append(page, clone(rec))
	}
	return page, total, nil
}

func (c *collection) checkUnique(id string, r Record) error {
	if c.Unique == "" {
		return nil
	}
	v, ok := r[c.Unique]
	if !ok {
		return nil
	}
	for other, rec := range c.records {
		if other != id && strings.EqualFold(fmt.Sprint(rec[c.Unique]), fmt.Sprint(v)) {
			return errors.Wrapf(errDuplicate, "%s %v", c.Unique, v)
		}
	}
	return nil
}

// matches reports whether rec satisfies every filter. Status filters are
// exact, other filters are case-insensitive substring matches.
func matches(rec Record, filter map[string]string) bool {
	for k, want := range filter {
		got := fmt.Sprint(rec[k])
		if k == "status" {
			if got != want {
				return false
			}
			continue
		}
		if !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

func compare(a, b any) int {
	fa, aok := number(a)
	fb, bok := number(b)
	if aok && bok {
		return cmp.Compare(fa, fb)
	}
	ta, aok := date(a)
	tb, bok := date(b)
	if aok && bok {
		return ta.Compare(tb)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func date(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse("02/01/2006 15:04:05", s)
	return t, err == nil
}

func clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
