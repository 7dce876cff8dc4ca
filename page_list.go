package hxadmin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/pthm/hxadmin/lib/form"
	"github.com/pthm/hxadmin/lib/query"
)

// ListProps are the props of a list page. They carry the encoded query so
// every action resumes from the state the browser is showing.
type ListProps struct {
	Query string
	ID    string // row targeted by a row action

	list any // controller driven by the current action
}

// HXEncode implements Encodable.
func (p ListProps) HXEncode() map[string]any {
	m := map[string]any{"q": p.Query}
	if p.ID != "" {
		m["id"] = p.ID
	}
	return m
}

// HXDecode implements Decodable.
func (p *ListProps) HXDecode(m map[string]any) error {
	var err error
	if p.Query, err = stringProp(m, "q"); err != nil {
		return err
	}
	p.ID, err = stringProp(m, "id")
	return err
}

// ListPageConfig configures a ListPage.
type ListPageConfig[T any] struct {
	Name       string // component name, e.g. "course"
	ObjectName string
	Path       string // list page URL; edit pages live at Path/{id}
	Endpoints  Endpoints
	Transport  Transport
	Codec      *query.Codec
	Columns    []Column[T]
	Search     form.Schema
	RowID      func(T) string // enables the edit and delete column
	Overrides  ListOverrides[T]
	Logger     *slog.Logger
}

// ListPage is the generic list screen of one entity. Each request is served
// by a fresh ListController resumed from the props.
type ListPage[T any] struct {
	*Component[ListProps]
	cfg ListPageConfig[T]
}

// NewListPage creates a list page and registers its actions.
func NewListPage[T any](cfg ListPageConfig[T]) *ListPage[T] {
	if cfg.Codec == nil {
		cfg.Codec = query.NewCodec(query.State{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p := &ListPage[T]{cfg: cfg}
	p.Component = New[ListProps](cfg.Name, p.render)

	p.Action("", p.handleRender)
	p.Action("filter", p.handleFilter)
	p.Action("page", p.handlePage).Method(http.MethodGet)
	p.Action("sort", p.handleSort).Method(http.MethodGet)
	p.Action("delete", p.handleDelete).Method(http.MethodDelete)
	return p
}

// Path returns the list page URL.
func (p *ListPage[T]) Path() string {
	return p.cfg.Path
}

// ObjectName returns the entity name shown in titles and messages.
func (p *ListPage[T]) ObjectName() string {
	return p.objectName()
}

func (p *ListPage[T]) controller(fx *effects) *ListController[T] {
	return NewListController(ListConfig[T]{
		Endpoints:  p.cfg.Endpoints,
		Transport:  p.cfg.Transport,
		Codec:      p.cfg.Codec,
		Path:       p.cfg.Path,
		ObjectName: p.cfg.ObjectName,
		Navigator:  fx,
		Notifier:   fx,
		Overrides:  p.cfg.Overrides,
		Logger:     p.cfg.Logger,
	})
}

func (p *ListPage[T]) render(ctx context.Context, props ListProps) templ.Component {
	ctl, ok := props.list.(*ListController[T])
	if !ok {
		ctl = p.controller(&effects{})
		_ = ctl.Mount(ctx, props.Query)
	}
	return listView(p, ctl, props)
}

// handleRender mounts the page from the query in the props, or from the
// browser URL when the props carry none.
func (p *ListPage[T]) handleRender(ctx context.Context, props ListProps, r *http.Request) Result[ListProps] {
	raw := props.Query
	if raw == "" {
		raw = CurrentQuery(r)
	}
	fx := &effects{}
	ctl := p.controller(fx)
	_ = ctl.Mount(ctx, raw)
	return p.finish(props, ctl, fx)
}

func (p *ListPage[T]) handleFilter(ctx context.Context, props ListProps, r *http.Request) Result[ListProps] {
	fx := &effects{}
	ctl := p.controller(fx)
	ctl.Resume(props.Query)

	filter := make(map[string]string, len(p.cfg.Search))
	for _, f := range p.cfg.Search {
		filter[f.Name] = r.FormValue(f.Name)
	}
	if err := ctl.ChangeFilter(ctx, filter); err != nil {
		p.cfg.Logger.DebugContext(ctx, "filter change failed", "object", p.cfg.ObjectName, "error", err)
	}
	return p.finish(props, ctl, fx)
}

func (p *ListPage[T]) handlePage(ctx context.Context, props ListProps, r *http.Request) Result[ListProps] {
	fx := &effects{}
	ctl := p.controller(fx)
	ctl.Resume(props.Query)

	q := ctl.Query()
	page, size := q.Page, q.PageSize
	if n, err := strconv.Atoi(r.URL.Query().Get(query.KeyPage)); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get(query.KeyPageSize)); err == nil && n > 0 {
		size = n
	}
	_ = ctl.ChangePagination(ctx, page, size)
	return p.finish(props, ctl, fx)
}

func (p *ListPage[T]) handleSort(ctx context.Context, props ListProps, r *http.Request) Result[ListProps] {
	fx := &effects{}
	ctl := p.controller(fx)
	ctl.Resume(props.Query)
	_ = ctl.ChangeSort(ctx, query.ParseSort(r.URL.Query().Get(query.KeySort)))
	return p.finish(props, ctl, fx)
}

func (p *ListPage[T]) handleDelete(ctx context.Context, props ListProps, r *http.Request) Result[ListProps] {
	if props.ID == "" {
		return Err(props, fmt.Errorf("delete %s: %w", p.objectName(), ErrNotFound))
	}
	fx := &effects{}
	ctl := p.controller(fx)
	ctl.Resume(props.Query)
	if err := ctl.Delete(ctx, props.ID); err == nil {
		return p.finish(props, ctl, fx).Trigger(p.cfg.Name+":deleted", map[string]any{"id": props.ID})
	}
	return p.finish(props, ctl, fx)
}

// finish stores the driven controller in the props so the view renders it
// instead of fetching again, and turns its recorded effects into headers and
// flashes.
func (p *ListPage[T]) finish(props ListProps, ctl *ListController[T], fx *effects) Result[ListProps] {
	props.Query = ctl.Codec().Encode(ctl.Query())
	props.ID = ""
	props.list = ctl
	return apply(fx, OK(props))
}

func (p *ListPage[T]) objectName() string {
	if p.cfg.ObjectName == "" {
		return "item"
	}
	return p.cfg.ObjectName
}

// stringProp reads an optional string prop.
func stringProp(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: prop %q is %T, not string", ErrInvalidFormat, key, v)
	}
	return s, nil
}
