package pages

import (
	"strconv"

	"github.com/pthm/hxadmin"
	"github.com/pthm/hxadmin/lib/form"
)

// CategoryPath is the list URL of categories.
const CategoryPath = "/category"

// CategoryKindRole is the kind of the categories managed here.
const CategoryKindRole = 1

// Category is one row of the category list.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"categoryName"`
	Description string `json:"categoryDescription"`
	Ordering    int    `json:"categoryOrdering"`
	Status      int    `json:"status"`
}

// NewCategory builds the category pages.
func NewCategory(d Deps) Entity[Category] {
	d = d.withDefaults()
	endpoints := hxadmin.CRUD("/v1/category")

	list := hxadmin.NewListPage(hxadmin.ListPageConfig[Category]{
		Name:       "category",
		ObjectName: "category",
		Path:       CategoryPath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Codec:      d.codec("categoryName", "status"),
		Columns: []hxadmin.Column[Category]{
			{Title: "Name", SortKey: "categoryName", Value: func(c Category) string { return c.Name }},
			{Title: "Description", Value: func(c Category) string { return c.Description }},
			hxadmin.StatusColumn(func(c Category) int { return c.Status }),
		},
		Search: form.Schema{
			{Name: "categoryName", Label: "Name", Kind: form.KindText},
			hxadmin.StatusField(false),
		},
		RowID:  func(c Category) string { return c.ID },
		Logger: d.Logger,
	})

	save := hxadmin.NewSavePage(hxadmin.SavePageConfig{
		Name:       "category-save",
		ObjectName: "category",
		ListURL:    CategoryPath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Schema: form.Schema{
			{Name: "categoryName", Label: "Name", Kind: form.KindText, Required: true},
			{Name: "categoryDescription", Label: "Description", Kind: form.KindTextArea},
			hxadmin.StatusField(true),
		},
		Defaults: hxadmin.Values{"status": strconv.Itoa(hxadmin.StatusActive)},
		Overrides: hxadmin.SaveOverrides{
			PrepareCreateData: func(values hxadmin.Values) hxadmin.Values {
				return with(values, hxadmin.Values{
					"categoryKind":     CategoryKindRole,
					"categoryOrdering": 0,
				})
			},
			PrepareUpdateData: func(values, detail hxadmin.Values) hxadmin.Values {
				return with(values, hxadmin.Values{"id": detail["id"]})
			},
		},
		Logger: d.Logger,
	})

	return Entity[Category]{Path: CategoryPath, List: list, Save: save}
}
