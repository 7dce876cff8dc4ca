package hxadmin

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/pthm/hxadmin/lib/form"
	"github.com/pthm/hxadmin/lib/query"
)

// Entity status values shared by every back-office entity.
const (
	StatusActive  = 1
	StatusPending = 0
	StatusLock    = -1
)

// StatusOptions are the choices of a status select, in display order.
var StatusOptions = []form.Option{
	{Value: strconv.Itoa(StatusActive), Label: "Active"},
	{Value: strconv.Itoa(StatusPending), Label: "Pending"},
	{Value: strconv.Itoa(StatusLock), Label: "Lock"},
}

// StatusField returns the status select used by search forms and save
// forms.
func StatusField(required bool) form.Field {
	return form.Field{
		Name:        "status",
		Label:       "Status",
		Kind:        form.KindSelect,
		Placeholder: "Status",
		Options:     StatusOptions,
		Required:    required,
	}
}

// Column describes one table column of a list page.
type Column[T any] struct {
	Title string
	// SortKey is the backend field the column sorts by. Empty disables
	// sorting.
	SortKey string
	Align   string // "", "center" or "right"
	Value   func(T) string
	// Class returns an extra CSS class for the cell, e.g. a status tag.
	Class func(T) string
}

// StatusColumn renders an entity status as a tag.
func StatusColumn[T any](status func(T) int) Column[T] {
	return Column[T]{
		Title: "Status",
		Align: "center",
		Value: func(item T) string { return StatusLabel(status(item)) },
		Class: func(item T) string { return "tag tag-status-" + strconv.Itoa(status(item)) },
	}
}

// StatusLabel returns the display label of a status value.
func StatusLabel(status int) string {
	v := strconv.Itoa(status)
	for _, o := range StatusOptions {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

type listModel struct {
	ID          string
	Search      []searchInput
	FilterAttrs templ.Attributes
	CreateURL   string
	LoadError   string
	Busy        bool
	Headers     []headerCell
	Rows        []listRow
	Actions     bool
	Colspan     int
	Total       int
	Pages       []pageLink
}

type searchInput struct {
	Field form.Field
	Value string
}

// headerCell is a table header. Attrs is nil for columns that do not sort.
type headerCell struct {
	Title string
	Class string
	Attrs templ.Attributes
}

type listRow struct {
	Cells       []listCell
	EditURL     string
	DeleteAttrs templ.Attributes
}

type listCell struct {
	Class string
	Text  string
	Tag   string
}

// pageLink is one pagination entry. Entries without Attrs are not
// clickable.
type pageLink struct {
	Label string
	Class string
	Attrs templ.Attributes
}

// listView renders a list page: search form, action bar, table and
// pagination.
func listView[T any](p *ListPage[T], ctl *ListController[T], props ListProps) templ.Component {
	q := ctl.Query()
	res := ctl.Result()
	props.Query = ctl.Codec().Encode(q)

	m := listModel{
		ID:        p.cfg.Name + "-list",
		CreateURL: p.cfg.Path + "/create",
		Busy:      ctl.Loading(),
		Actions:   p.cfg.RowID != nil,
		Colspan:   len(p.cfg.Columns),
		Total:     res.Total,
		Pages:     pageLinks(p.Wire("page", props), q, res.Total),
	}
	if len(p.cfg.Search) > 0 {
		m.FilterAttrs = p.Wire("filter", props)
		for _, f := range p.cfg.Search {
			m.Search = append(m.Search, searchInput{Field: f, Value: q.Filter[f.Name]})
		}
	}
	if ctl.Err() != nil {
		m.LoadError = fmt.Sprintf("Could not load %s list.", p.objectName())
	}
	if m.Actions {
		m.Colspan++
	}
	for _, col := range p.cfg.Columns {
		m.Headers = append(m.Headers, header(col, q, p.Wire("sort", props)))
	}
	for _, item := range res.Items {
		var row listRow
		for _, col := range p.cfg.Columns {
			row.Cells = append(row.Cells, cell(col, item))
		}
		if m.Actions {
			id := p.cfg.RowID(item)
			props.ID = id
			row.EditURL = p.cfg.Path + "/" + url.PathEscape(id)
			row.DeleteAttrs = p.Wire("delete", props)
			row.DeleteAttrs["hx-confirm"] = fmt.Sprintf("Delete this %s?", p.objectName())
		}
		m.Rows = append(m.Rows, row)
	}
	return listTemplate(m)
}

func header[T any](col Column[T], q query.State, wire templ.Attributes) headerCell {
	h := headerCell{Title: col.Title, Class: alignClass(col.Align)}
	if col.SortKey == "" {
		return h
	}

	// Clicking cycles ascending, descending, unsorted.
	next := col.SortKey
	if q.Sort != nil && q.Sort.Field == col.SortKey {
		if q.Sort.Desc {
			next, h.Title = "", col.Title+" ▼"
		} else {
			next, h.Title = "-"+col.SortKey, col.Title+" ▲"
		}
	}
	h.Attrs = withVals(wire, map[string]string{"sort": next})
	return h
}

func cell[T any](col Column[T], item T) listCell {
	c := listCell{Class: alignClass(col.Align)}
	if col.Value != nil {
		c.Text = col.Value(item)
	}
	if col.Class != nil {
		c.Tag = col.Class(item)
	}
	return c
}

func pageLinks(wire templ.Attributes, q query.State, total int) []pageLink {
	pages := (total + q.PageSize - 1) / q.PageSize
	if pages <= 1 {
		return nil
	}
	link := func(page int, label string, disabled, current bool) pageLink {
		l := pageLink{Label: label, Class: "page"}
		if current {
			l.Class += " current"
		}
		if disabled || current {
			return l
		}
		l.Attrs = withVals(wire, map[string]string{
			query.KeyPage:     strconv.Itoa(page),
			query.KeyPageSize: strconv.Itoa(q.PageSize),
		})
		return l
	}

	links := []pageLink{link(q.Page-1, "‹", q.Page <= 1, false)}
	for i := 1; i <= pages; i++ {
		links = append(links, link(i, strconv.Itoa(i), false, i == q.Page))
	}
	return append(links, link(q.Page+1, "›", q.Page >= pages, false))
}

type saveModel struct {
	ID          string
	Title       string
	LoadError   string
	ReloadAttrs templ.Attributes
	FormID      string
	SaveAttrs   templ.Attributes
	Fields      []fieldView
	BackURL     string
	Disabled    bool
	Verb        string
	Dirty       bool
}

type fieldView struct {
	form.Field
	ID    string
	Value string
	Error string
}

// saveView renders a save page: title, form and action buttons.
func saveView(p *SavePage, ctl *SaveController) templ.Component {
	props := SaveProps{ID: ctl.ID()}
	m := saveModel{
		ID:        p.cfg.Name + "-save",
		Title:     ctl.Title(),
		FormID:    ctl.FormID(),
		SaveAttrs: p.Wire("save", props),
		BackURL:   p.cfg.ListURL,
		Disabled:  ctl.State() != SaveReady,
		Verb:      "Create",
		Dirty:     ctl.Dirty(),
	}
	if ctl.Mode() == Editing {
		m.Verb = "Update"
	}
	if ctl.LoadErr() != nil {
		m.LoadError = fmt.Sprintf("Could not load %s.", p.objectName())
		m.ReloadAttrs = p.Wire("", props)
	}
	values := ctl.Values()
	errs := ctl.FieldErrors()
	for _, f := range ctl.Schema() {
		m.Fields = append(m.Fields, fieldView{
			Field: f,
			ID:    "field-" + f.Name,
			Value: form.FormatValue(values[f.Name]),
			Error: errs[f.Name],
		})
	}
	return saveTemplate(m)
}

// withVals adds request parameters to a copy of wire, keeping any hx-vals it
// already carries. For GET actions htmx appends them to the query string.
func withVals(wire templ.Attributes, vals map[string]string) templ.Attributes {
	attrs := maps.Clone(wire)
	if prev, ok := attrs["hx-vals"].(string); ok {
		merged := map[string]string{}
		_ = json.Unmarshal([]byte(prev), &merged)
		maps.Copy(merged, vals)
		vals = merged
	}
	data, _ := json.Marshal(vals)
	attrs["hx-vals"] = string(data)
	return attrs
}

func inputType(k form.Kind) string {
	switch k {
	case form.KindNumber:
		return "number"
	case form.KindDate:
		return "date"
	}
	return "text"
}

func label(f form.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func placeholder(f form.Field) string {
	if f.Placeholder != "" {
		return f.Placeholder
	}
	return label(f)
}

func alignClass(align string) string {
	if align == "" {
		return "align-left"
	}
	return "align-" + align
}
