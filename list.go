package hxadmin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/pthm/hxadmin/lib/query"
)

// ListState is the lifecycle state of a ListController.
type ListState int

const (
	ListIdle ListState = iota
	ListLoading
	ListLoaded
	ListError
)

func (s ListState) String() string {
	switch s {
	case ListIdle:
		return "idle"
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListError:
		return "error"
	}
	return "ListState(" + strconv.Itoa(int(s)) + ")"
}

// ListOverrides are the extension points of a list page. A nil field uses
// the default; a non-nil field replaces it entirely.
type ListOverrides[T any] struct {
	// MappingData converts a list envelope into items and total.
	// Default: DefaultMapping.
	MappingData func(env Envelope) (ListResult[T], error)

	// ChangeFilter handles a submitted search form.
	// Default: merge the values into the query, reset to page 1, replace
	// the URL and fetch (see ListController.ApplyQuery).
	ChangeFilter func(ctx context.Context, c *ListController[T], filter map[string]string) error
}

// ListConfig configures a ListController.
type ListConfig[T any] struct {
	Endpoints  Endpoints
	Transport  Transport
	Codec      *query.Codec
	Path       string // list page URL the query string is appended to
	ObjectName string
	Navigator  Navigator
	Notifier   Notifier
	Overrides  ListOverrides[T]
	Logger     *slog.Logger
}

// ListController owns the query, pagination and filter lifecycle of one
// list page session.
//
// Fetches are ordered by the query that issued them, not by completion: a
// response for a query that is no longer current is discarded, and starting
// a fetch cancels the one in flight.
type ListController[T any] struct {
	cfg ListConfig[T]

	mu     sync.Mutex
	state  ListState
	query  query.State
	result ListResult[T]
	err    error
	seq    uint64
	cancel context.CancelFunc
}

// NewListController creates an idle controller. Missing collaborators are
// replaced by no-op implementations.
func NewListController[T any](cfg ListConfig[T]) *ListController[T] {
	if cfg.Codec == nil {
		cfg.Codec = query.NewCodec(query.State{})
	}
	if cfg.Navigator == nil {
		cfg.Navigator = discard{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ListController[T]{
		cfg:   cfg,
		query: cfg.Codec.Default(),
	}
}

// Mount decodes the page URL's query string into the controller's state and
// performs the initial fetch. The URL is not rewritten.
func (c *ListController[T]) Mount(ctx context.Context, rawQuery string) error {
	c.mu.Lock()
	c.query = c.cfg.Codec.Normalize(c.cfg.Codec.Decode(rawQuery))
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// Resume restores the query of an earlier request without fetching. Pages
// serve every request with a fresh controller and resume it from the query
// carried in the action props.
func (c *ListController[T]) Resume(rawQuery string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = c.cfg.Codec.Normalize(c.cfg.Codec.Decode(rawQuery))
}

// ChangePagination moves to another page or page size.
func (c *ListController[T]) ChangePagination(ctx context.Context, page, pageSize int) error {
	q := c.Query()
	q.Page = page
	q.PageSize = pageSize
	return c.ApplyQuery(ctx, q)
}

// ChangeSort sets or clears the ordering. The page is kept.
func (c *ListController[T]) ChangeSort(ctx context.Context, sort *query.Sort) error {
	q := c.Query()
	q.Sort = sort
	return c.ApplyQuery(ctx, q)
}

// ChangeFilter applies search form values. Unless overridden, the filter is
// merged into the query and the page is reset to 1, since the old page may
// not exist under the new filter.
func (c *ListController[T]) ChangeFilter(ctx context.Context, filter map[string]string) error {
	if fn := c.cfg.Overrides.ChangeFilter; fn != nil {
		return fn(ctx, c, filter)
	}
	return c.ApplyQuery(ctx, query.Merge(c.Query(), filter))
}

// ApplyQuery makes s the current query, replaces the browser URL with its
// encoding and fetches.
func (c *ListController[T]) ApplyQuery(ctx context.Context, s query.State) error {
	c.mu.Lock()
	c.query = c.cfg.Codec.Normalize(s)
	u := c.urlLocked()
	c.mu.Unlock()

	c.cfg.Navigator.ReplaceURL(u)
	return c.Fetch(ctx)
}

// Fetch loads the list for the current query.
//
// Transport failures move the controller to ListError while keeping the
// last good result. A response that arrives after a newer fetch started is
// dropped and Fetch returns nil.
func (c *ListController[T]) Fetch(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.query.Clone()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = ListLoading
	c.mu.Unlock()
	defer cancel()

	res, err := c.load(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.cfg.Logger.DebugContext(ctx, "discarding superseded list response",
			"object", c.cfg.ObjectName, "query", c.cfg.Codec.Encode(q))
		return nil
	}
	c.cancel = nil

	if err != nil {
		c.state = ListError
		c.err = err
		c.cfg.Logger.ErrorContext(ctx, "list fetch failed", "object", c.cfg.ObjectName, "error", err)
		c.cfg.Notifier.Notify(FlashError, fmt.Sprintf("Could not load %s list", c.objectName()))
		return err
	}
	c.state = ListLoaded
	c.result = res
	c.err = nil
	return nil
}

func (c *ListController[T]) load(ctx context.Context, q query.State) (ListResult[T], error) {
	env, err := c.cfg.Transport.Execute(ctx, c.cfg.Endpoints.GetList, Params{Query: listParams(q)})
	if err != nil {
		return ListResult[T]{}, &TransportError{Op: "get list", Err: err}
	}
	mapping := c.cfg.Overrides.MappingData
	if mapping == nil {
		mapping = DefaultMapping[T]
	}
	return mapping(env)
}

// Delete removes one entity and reloads the current page.
func (c *ListController[T]) Delete(ctx context.Context, id string) error {
	env, err := c.cfg.Transport.Execute(ctx, c.cfg.Endpoints.Delete, Params{Path: map[string]string{"id": id}})
	if err != nil {
		err = &TransportError{Op: "delete", Err: err}
	} else if !env.Result {
		err = &LogicalError{Message: env.Message}
	}
	if err != nil {
		c.cfg.Logger.ErrorContext(ctx, "delete failed", "object", c.cfg.ObjectName, "id", id, "error", err)
		c.cfg.Notifier.Notify(FlashError, fmt.Sprintf("Could not delete %s", c.objectName()))
		return err
	}

	c.cfg.Notifier.Notify(FlashSuccess, fmt.Sprintf("Deleted %s", c.objectName()))
	return c.Fetch(ctx)
}

// State returns the lifecycle state.
func (c *ListController[T]) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a fetch is outstanding.
func (c *ListController[T]) Loading() bool {
	return c.State() == ListLoading
}

// Query returns a copy of the current query.
func (c *ListController[T]) Query() query.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}

// Result returns the last successfully loaded page. It stays available
// after a failed fetch.
func (c *ListController[T]) Result() ListResult[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the error of the last fetch, or nil.
func (c *ListController[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// URL returns the list page URL for the current query.
func (c *ListController[T]) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.urlLocked()
}

// Codec returns the query codec.
func (c *ListController[T]) Codec() *query.Codec {
	return c.cfg.Codec
}

func (c *ListController[T]) urlLocked() string {
	encoded := c.cfg.Codec.Encode(c.query)
	if encoded == "" {
		return c.cfg.Path
	}
	return c.cfg.Path + "?" + encoded
}

func (c *ListController[T]) objectName() string {
	if c.cfg.ObjectName == "" {
		return "item"
	}
	return c.cfg.ObjectName
}

// listParams converts a query to backend parameters. The backend pages
// from 0 and sorts with "field,asc|desc".
func listParams(q query.State) url.Values {
	v := url.Values{}
	for k, val := range q.Filter {
		v.Set(k, val)
	}
	v.Set("page", strconv.Itoa(q.Page-1))
	v.Set("size", strconv.Itoa(q.PageSize))
	if q.Sort != nil {
		dir := "asc"
		if q.Sort.Desc {
			dir = "desc"
		}
		v.Set("sort", q.Sort.Field+","+dir)
	}
	return v
}
