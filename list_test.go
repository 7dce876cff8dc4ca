package hxadmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"testing"

	"github.com/pthm/hxadmin/lib/query"
)

type testCourse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var courseEndpoints = CRUD("/v1/course")

func coursePage(total int, names ...string) Envelope {
	content := make([]testCourse, len(names))
	for i, n := range names {
		content[i] = testCourse{ID: n, Name: n}
	}
	return OKEnvelope(map[string]any{"content": content, "totalElements": total})
}

func newTestList(t *testing.T, tr Transport, fx *effects) *ListController[testCourse] {
	t.Helper()
	return NewListController(ListConfig[testCourse]{
		Endpoints:  courseEndpoints,
		Transport:  tr,
		Codec:      query.NewCodec(query.State{}),
		Path:       "/course",
		ObjectName: "course",
		Navigator:  fx,
		Notifier:   fx,
	})
}

func itemNames(items []testCourse) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func TestListController_Mount(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return coursePage(12, "a", "b"), nil
	}}
	fx := &effects{}
	c := newTestList(t, tr, fx)

	if err := c.Mount(context.Background(), "page=2&sort=-createdDate&name=go"); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	calls := tr.CallsTo(courseEndpoints.GetList)
	if len(calls) != 1 {
		t.Fatalf("GetList calls = %d, want 1", len(calls))
	}
	want := url.Values{
		"page": {"1"},
		"size": {"10"},
		"sort": {"createdDate,desc"},
		"name": {"go"},
	}
	if got := calls[0].Params.Query; got.Encode() != want.Encode() {
		t.Errorf("params = %v, want %v", got, want)
	}
	if c.State() != ListLoaded {
		t.Errorf("State() = %v, want loaded", c.State())
	}
	res := c.Result()
	if res.Total != 12 || !slices.Equal(itemNames(res.Items), []string{"a", "b"}) {
		t.Errorf("Result() = %+v", res)
	}
	if fx.replace != "" {
		t.Errorf("Mount rewrote the URL to %q", fx.replace)
	}
}

func TestListController_ChangeFilterResetsPage(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return coursePage(25, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j"), nil
	}}
	fx := &effects{}
	c := newTestList(t, tr, fx)
	ctx := context.Background()

	if err := c.Mount(ctx, "page=2&pageSize=10"); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if q := c.Query(); q.Page != 2 || c.Result().Total != 25 {
		t.Fatalf("after Mount page=%d total=%d, want 2 and 25", q.Page, c.Result().Total)
	}
	before := len(tr.CallsTo(courseEndpoints.GetList))

	if err := c.ChangeFilter(ctx, map[string]string{"name": "go", "status": ""}); err != nil {
		t.Fatalf("ChangeFilter() error = %v", err)
	}

	calls := tr.CallsTo(courseEndpoints.GetList)[before:]
	if len(calls) != 1 {
		t.Fatalf("GetList calls after the filter change = %d, want 1", len(calls))
	}
	want := url.Values{
		"name": {"go"},
		"page": {"0"},
		"size": {"10"},
	}
	if got := calls[0].Params.Query; got.Encode() != want.Encode() {
		t.Errorf("params = %v, want %v", got, want)
	}

	q := c.Query()
	if q.Page != 1 || q.PageSize != 10 {
		t.Errorf("Query() page=%d size=%d, want 1 and 10", q.Page, q.PageSize)
	}
	if _, ok := q.Filter["status"]; ok {
		t.Errorf("empty filter value kept: %v", q.Filter)
	}
	if fx.replace != "/course?name=go" {
		t.Errorf("ReplaceURL = %q", fx.replace)
	}
	if fx.navigate != "" {
		t.Errorf("filter change navigated to %q", fx.navigate)
	}
}

func TestListController_ChangeFilterKeepsPageSize(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return coursePage(0), nil
	}}
	fx := &effects{}
	c := newTestList(t, tr, fx)
	ctx := context.Background()

	_ = c.Mount(ctx, "page=3&pageSize=20")
	if err := c.ChangeFilter(ctx, map[string]string{"name": "go"}); err != nil {
		t.Fatalf("ChangeFilter() error = %v", err)
	}
	if q := c.Query(); q.Page != 1 || q.PageSize != 20 {
		t.Errorf("Query() page=%d size=%d, want 1 and 20", q.Page, q.PageSize)
	}
	if fx.replace != "/course?name=go&pageSize=20" {
		t.Errorf("ReplaceURL = %q", fx.replace)
	}
}

func TestListController_PaginationAndSortKeepFilter(t *testing.T) {
	tr := &StubTransport{}
	fx := &effects{}
	c := newTestList(t, tr, fx)
	ctx := context.Background()

	_ = c.Mount(ctx, "name=go")
	_ = c.ChangePagination(ctx, 4, 50)
	if q := c.Query(); q.Page != 4 || q.PageSize != 50 || q.Filter["name"] != "go" {
		t.Errorf("after ChangePagination Query() = %+v", q)
	}

	_ = c.ChangeSort(ctx, &query.Sort{Field: "name"})
	q := c.Query()
	if q.Page != 4 || q.Sort == nil || q.Sort.Field != "name" {
		t.Errorf("after ChangeSort Query() = %+v", q)
	}
	if fx.replace != "/course?name=go&page=4&pageSize=50&sort=name" {
		t.Errorf("ReplaceURL = %q", fx.replace)
	}

	_ = c.ChangeSort(ctx, nil)
	if c.Query().Sort != nil {
		t.Error("ChangeSort(nil) should clear the sort")
	}
	if got := len(tr.CallsTo(courseEndpoints.GetList)); got != 4 {
		t.Errorf("GetList calls = %d, want 4", got)
	}
}

func TestListController_KeepsResultOnError(t *testing.T) {
	fail := false
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if fail {
			return Envelope{}, errors.New("connection refused")
		}
		return coursePage(1, "kept"), nil
	}}
	fx := &effects{}
	c := newTestList(t, tr, fx)
	ctx := context.Background()

	_ = c.Mount(ctx, "")
	fail = true
	err := c.ChangePagination(ctx, 2, 10)

	if !IsTransportError(err) {
		t.Fatalf("ChangePagination() error = %v, want transport error", err)
	}
	if c.State() != ListError || c.Err() == nil {
		t.Errorf("State() = %v Err() = %v, want error state", c.State(), c.Err())
	}
	if got := itemNames(c.Result().Items); !slices.Equal(got, []string{"kept"}) {
		t.Errorf("Result() items = %v, want the last good page", got)
	}
	if len(fx.flashes) != 1 || fx.flashes[0].Level != FlashError {
		t.Errorf("flashes = %v, want one error", fx.flashes)
	}

	fail = false
	if err := c.Fetch(ctx); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if c.Err() != nil || c.State() != ListLoaded {
		t.Errorf("successful fetch should clear the error, got %v", c.Err())
	}
}

func TestListController_LastRequestWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if p.Query.Get("page") == "0" {
			close(started)
			<-release
			return coursePage(1, "stale"), nil
		}
		return coursePage(1, "fresh"), nil
	}}
	c := newTestList(t, tr, &effects{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Fetch(ctx) }()
	<-started

	if err := c.ChangePagination(ctx, 2, 10); err != nil {
		t.Fatalf("ChangePagination() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("superseded Fetch() error = %v, want nil", err)
	}

	if got := itemNames(c.Result().Items); !slices.Equal(got, []string{"fresh"}) {
		t.Errorf("Result() items = %v, want the latest query's", got)
	}
	if c.Query().Page != 2 || c.State() != ListLoaded {
		t.Errorf("Query().Page = %d State() = %v", c.Query().Page, c.State())
	}
}

func TestListController_SupersededFetchIsCanceled(t *testing.T) {
	canceled := make(chan struct{})
	started := make(chan struct{})
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if p.Query.Get("page") == "0" {
			close(started)
			<-ctx.Done()
			close(canceled)
			return Envelope{}, ctx.Err()
		}
		return coursePage(0), nil
	}}
	c := newTestList(t, tr, &effects{})

	done := make(chan error, 1)
	go func() { done <- c.Fetch(context.Background()) }()
	<-started
	_ = c.ChangePagination(context.Background(), 2, 10)

	<-canceled
	if err := <-done; err != nil {
		t.Errorf("superseded Fetch() error = %v, want nil", err)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, a canceled fetch must not surface", c.Err())
	}
}

func TestListController_Resume(t *testing.T) {
	tr := &StubTransport{}
	c := newTestList(t, tr, &effects{})

	c.Resume("page=5&name=go")
	if len(tr.Calls()) != 0 {
		t.Errorf("Resume() made %d transport calls", len(tr.Calls()))
	}
	if q := c.Query(); q.Page != 5 || q.Filter["name"] != "go" {
		t.Errorf("Query() = %+v", q)
	}
	if c.URL() != "/course?name=go&page=5" {
		t.Errorf("URL() = %q", c.URL())
	}
}

func TestListController_Delete(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		if ep == courseEndpoints.Delete && p.Path["id"] == "locked" {
			return FailEnvelope("course has students"), nil
		}
		return coursePage(0), nil
	}}
	fx := &effects{}
	c := newTestList(t, tr, fx)
	ctx := context.Background()

	if err := c.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	calls := tr.Calls()
	if len(calls) != 2 || calls[0].Endpoint != courseEndpoints.Delete || calls[1].Endpoint != courseEndpoints.GetList {
		t.Fatalf("calls = %+v, want delete then reload", calls)
	}
	if calls[0].Params.Path["id"] != "c1" {
		t.Errorf("delete id = %q", calls[0].Params.Path["id"])
	}
	if len(fx.flashes) != 1 || fx.flashes[0] != (Flash{Level: FlashSuccess, Message: "Deleted course"}) {
		t.Errorf("flashes = %v", fx.flashes)
	}

	err := c.Delete(ctx, "locked")
	if !IsLogicalFailure(err) {
		t.Errorf("Delete(locked) error = %v, want logical failure", err)
	}
	if got := len(tr.Calls()); got != 3 {
		t.Errorf("failed delete should not reload, calls = %d", got)
	}
}

func TestListController_Overrides(t *testing.T) {
	tr := &StubTransport{Handler: func(ctx context.Context, ep Endpoint, p Params) (Envelope, error) {
		return OKEnvelope([]testCourse{{ID: "1", Name: "raw"}}), nil
	}}
	fx := &effects{}
	var filtered map[string]string
	c := NewListController(ListConfig[testCourse]{
		Endpoints: courseEndpoints,
		Transport: tr,
		Path:      "/course",
		Navigator: fx,
		Notifier:  fx,
		Overrides: ListOverrides[testCourse]{
			MappingData: func(env Envelope) (ListResult[testCourse], error) {
				var items []testCourse
				if err := json.Unmarshal(env.Data, &items); err != nil {
					return ListResult[testCourse]{}, err
				}
				return ListResult[testCourse]{Items: items, Total: len(items)}, nil
			},
			ChangeFilter: func(ctx context.Context, c *ListController[testCourse], filter map[string]string) error {
				filtered = filter
				q := c.Query()
				q.Filter = filter
				q.Page = 1
				return c.ApplyQuery(ctx, q)
			},
		},
	})
	ctx := context.Background()

	_ = c.Mount(ctx, "name=old&status=1")
	if res := c.Result(); res.Total != 1 || res.Items[0].Name != "raw" {
		t.Errorf("Result() = %+v, want custom mapping", res)
	}

	_ = c.ChangeFilter(ctx, map[string]string{"name": "new"})
	if filtered["name"] != "new" {
		t.Errorf("override not called, got %v", filtered)
	}
	if q := c.Query(); q.Filter["status"] != "" || q.Filter["name"] != "new" {
		t.Errorf("override should replace the filter, got %v", q.Filter)
	}
}

func TestListParams(t *testing.T) {
	tests := []struct {
		name string
		q    query.State
		want string
	}{
		{"first page", query.State{Page: 1, PageSize: 10}, "page=0&size=10"},
		{"sorted", query.State{Page: 3, PageSize: 20, Sort: &query.Sort{Field: "name"}}, "page=2&size=20&sort=name%2Casc"},
		{"descending", query.State{Page: 1, PageSize: 10, Sort: &query.Sort{Field: "fee", Desc: true}}, "page=0&size=10&sort=fee%2Cdesc"},
		{"filtered", query.State{Page: 1, PageSize: 10, Filter: map[string]string{"status": "1"}}, "page=0&size=10&status=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listParams(tt.q).Encode(); got != tt.want {
				t.Errorf("listParams() = %q, want %q", got, tt.want)
			}
		})
	}
}
