package pages

import (
	"context"
	"strconv"
	"time"

	"github.com/pthm/hxadmin"
	"github.com/pthm/hxadmin/lib/form"
	"github.com/pthm/hxadmin/lib/query"
)

// CoursePath is the list URL of courses.
const CoursePath = "/course"

// Course is one row of the course list.
type Course struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Fee     float64 `json:"fee"`
	Status  int     `json:"status"`
	State   string  `json:"state"`
	Start   string  `json:"startDate"`
	End     string  `json:"endDate"`
	Subject struct {
		Name string `json:"name"`
	} `json:"subject"`
}

// Lecture states of a course.
var lectureStates = []form.Option{
	{Value: "PREPARING", Label: "Preparing"},
	{Value: "STARTED", Label: "Started"},
	{Value: "FINISHED", Label: "Finished"},
	{Value: "CANCELED", Label: "Canceled"},
}

func courseSchema(now func() time.Time) form.Schema {
	return form.Schema{
		{Name: "name", Label: "Course name", Kind: form.KindText, Required: true},
		{Name: "subjectId", Label: "Subject", Kind: form.KindText, Required: true},
		{
			Name: "startDate", Label: "Start date", Kind: form.KindDate, Required: true,
			Validate: form.NotBefore(now, "Start date must be today or later"),
		},
		{
			Name: "endDate", Label: "End date", Kind: form.KindDate, Required: true,
			Validate:  form.NotBeforeField("startDate", "End date must not be before the start date"),
			DependsOn: []string{"startDate"},
		},
		{Name: "description", Label: "Description", Kind: form.KindTextArea, Required: true},
		{Name: "state", Label: "State", Kind: form.KindSelect, Options: lectureStates, Required: true},
		{Name: "fee", Label: "Tuition fee", Kind: form.KindNumber, Required: true, Rules: "min=0"},
		{Name: "returnFee", Label: "Return fee", Kind: form.KindNumber, Rules: "min=0"},
		hxadmin.StatusField(true),
	}
}

// NewCourse builds the course pages.
func NewCourse(d Deps) Entity[Course] {
	d = d.withDefaults()
	endpoints := hxadmin.CRUD("/v1/course")

	list := hxadmin.NewListPage(hxadmin.ListPageConfig[Course]{
		Name:       "course",
		ObjectName: "course",
		Path:       CoursePath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Codec:      d.codec("name", "status"),
		Columns: []hxadmin.Column[Course]{
			{Title: "Course name", SortKey: "name", Value: func(c Course) string { return c.Name }},
			{Title: "Subject", Value: func(c Course) string { return c.Subject.Name }},
			{Title: "Tuition fee", SortKey: "fee", Align: "right", Value: func(c Course) string {
				return strconv.FormatFloat(c.Fee, 'f', -1, 64)
			}},
			{Title: "Start date", Value: func(c Course) string { return displayDate(c.Start) }},
			{Title: "End date", Value: func(c Course) string { return displayDate(c.End) }},
			{Title: "State", Align: "center", Value: func(c Course) string { return c.State }},
			hxadmin.StatusColumn(func(c Course) int { return c.Status }),
		},
		Search: form.Schema{
			{Name: "name", Label: "Course name", Kind: form.KindText},
			hxadmin.StatusField(false),
		},
		RowID: func(c Course) string { return c.ID },
		Overrides: hxadmin.ListOverrides[Course]{
			// A search starts over from the default query: the sort and page
			// size are dropped along with the old filter.
			ChangeFilter: func(ctx context.Context, c *hxadmin.ListController[Course], filter map[string]string) error {
				return c.ApplyQuery(ctx, query.Merge(c.Codec().Default(), filter))
			},
		},
		Logger: d.Logger,
	})

	save := hxadmin.NewSavePage(hxadmin.SavePageConfig{
		Name:       "course-save",
		ObjectName: "course",
		ListURL:    CoursePath,
		Endpoints:  endpoints,
		Transport:  d.Transport,
		Schema:     courseSchema(d.Now),
		Defaults:   hxadmin.Values{"status": strconv.Itoa(hxadmin.StatusActive)},
		Overrides: hxadmin.SaveOverrides{
			PrepareCreateData: func(values hxadmin.Values) hxadmin.Values {
				return coursePayload(values, hxadmin.Values{"status": hxadmin.StatusActive})
			},
			PrepareUpdateData: func(values, detail hxadmin.Values) hxadmin.Values {
				return coursePayload(values, hxadmin.Values{
					"courseId": detail["id"],
					"status":   hxadmin.StatusActive,
				})
			},
			OnSaveError: func(ctx context.Context, c *hxadmin.SaveController, err error) {
				msg := hxadmin.MessageOf(err)
				if msg == "" {
					msg = "An error occurred"
				}
				c.Notify(hxadmin.FlashError, msg)
			},
		},
		Logger: d.Logger,
	})

	return Entity[Course]{Path: CoursePath, List: list, Save: save}
}

func coursePayload(values, extra hxadmin.Values) hxadmin.Values {
	out := with(values, extra)
	out["startDate"] = formatDate(out["startDate"])
	out["endDate"] = formatDate(out["endDate"])
	return out
}
