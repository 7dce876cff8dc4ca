package pages

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	hxadminecho "github.com/pthm/hxadmin/adapters/echo"
	"github.com/pthm/hxadmin/internal/menu"
)

// Layout returns the back-office document: navigation, content and the
// toast container.
func Layout(title string, m menu.Menu) hxadminecho.Layout {
	return func(c echo.Context, content templ.Component) templ.Component {
		return document(title, m, m.Active(c.Request().URL.Path), content)
	}
}
