package pages

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pthm/hxadmin"
	hxadminecho "github.com/pthm/hxadmin/adapters/echo"
)

// Register adds every entity page to reg and serves their documents on r.
// The root path redirects to the first list page.
func Register(r hxadminecho.Router, reg *hxadmin.Registry, d Deps, layout hxadminecho.Layout) {
	course := NewCourse(d)
	subject := NewSubject(d)
	category := NewCategory(d)

	mount(r, reg, course, layout)
	mount(r, reg, subject, layout)
	mount(r, reg, category, layout)

	r.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, CoursePath)
	})
}

func mount[T any](r hxadminecho.Router, reg *hxadmin.Registry, e Entity[T], layout hxadminecho.Layout) {
	reg.Add(e.List, e.Save)
	hxadminecho.ListRoute(r, e.Path, e.List, layout)
	hxadminecho.SaveRoute(r, e.Path, e.Save, layout)
}
