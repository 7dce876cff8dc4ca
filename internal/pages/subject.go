package pages

import (
	"strconv"

	"github.com/pthm/hxadmin"
	"github.com/pthm/hxadmin/lib/form"
)

// SubjectPath is the list URL of subjects.
const SubjectPath = "/subject"

// Subject is one row of the subject list.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"subjectName"`
	Code        string `json:"subjectCode"`
	CreatedDate string `json:"createdDate"`
	Status      int    `json:"status"`
}

// NewSubject builds the subject pages.
func NewSubject(d Deps) Entity[Subject] {
	d = d.withDefaults()
	endpoints := hxadmin.CRUD("/v1/subject")

	list := hxadmin.NewListPage(hxadmin.ListPageConfig[Subject]{
		Name:       "subject",
		ObjectName: "subject",
		Path:       SubjectPath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Codec:      d.codec("subjectName", "status"),
		Columns: []hxadmin.Column[Subject]{
			{Title: "Subject name", SortKey: "subjectName", Value: func(s Subject) string { return s.Name }},
			{Title: "Subject code", SortKey: "subjectCode", Value: func(s Subject) string { return s.Code }},
			{Title: "Created", SortKey: "createdDate", Value: func(s Subject) string { return displayDate(s.CreatedDate) }},
			hxadmin.StatusColumn(func(s Subject) int { return s.Status }),
		},
		Search: form.Schema{
			{Name: "subjectName", Label: "Subject name", Kind: form.KindText},
			hxadmin.StatusField(false),
		},
		RowID:  func(s Subject) string { return s.ID },
		Logger: d.Logger,
	})

	save := hxadmin.NewSavePage(hxadmin.SavePageConfig{
		Name:       "subject-save",
		ObjectName: "subject",
		ListURL:    SubjectPath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Schema: form.Schema{
			{Name: "subjectName", Label: "Subject name", Kind: form.KindText, Required: true, Rules: "max=255"},
			{Name: "subjectCode", Label: "Subject code", Kind: form.KindText, Required: true, Rules: "alphanum,max=32"},
			hxadmin.StatusField(true),
		},
		Defaults: hxadmin.Values{"status": strconv.Itoa(hxadmin.StatusPending)},
		Overrides: hxadmin.SaveOverrides{
			PrepareUpdateData: func(values, detail hxadmin.Values) hxadmin.Values {
				return with(values, hxadmin.Values{"id": detail["id"]})
			},
		},
		Logger: d.Logger,
	})

	return Entity[Subject]{Path: SubjectPath, List: list, Save: save}
}
