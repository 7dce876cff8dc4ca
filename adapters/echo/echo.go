// Package hxadminecho mounts hxadmin pages on the Echo framework.
//
// Mount the page registry onto an Echo instance or group:
//
//	e := echo.New()
//	reg := hxadminecho.Mount(e, hxadminecho.WithKey(key))
//	reg.Add(courseList, courseSave)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/admin", authMiddleware)
//	reg := hxadminecho.MountGroup(g)
package hxadminecho

import (
	"crypto/rand"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/pthm/hxadmin"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key     []byte
	path    string
	onError func(http.ResponseWriter, *http.Request, error)
}

// WithKey sets the props signing key for the registry.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL path prefix for page action routes.
// Defaults to "/_c/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithOnError replaces the registry's error handler.
func WithOnError(fn func(http.ResponseWriter, *http.Request, error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// Mount creates a registry and mounts the page action handler on an Echo
// instance.
func Mount(e *echo.Echo, opts ...Option) *hxadmin.Registry {
	reg := newRegistry(opts)
	e.Any(reg.path+"*", echo.WrapHandler(reg.Handler()))
	return reg.Registry
}

// MountGroup creates a registry and mounts the page action handler on an
// Echo group. Page actions then share the group's middleware.
func MountGroup(g *echo.Group, opts ...Option) *hxadmin.Registry {
	reg := newRegistry(opts)
	g.Any(reg.path+"*", echo.WrapHandler(reg.Handler()))
	return reg.Registry
}

type mountedRegistry struct {
	*hxadmin.Registry
	path string
}

func newRegistry(opts []Option) *mountedRegistry {
	o := &options{path: "/_c/"}
	for _, opt := range opts {
		opt(o)
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("hxadminecho: failed to generate random key: %v", err))
		}
	}

	reg := hxadmin.NewRegistry(key)
	if o.onError != nil {
		reg.OnError = o.onError
	}
	return &mountedRegistry{Registry: reg, path: o.path}
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxadminecho.Render(c, layout(page))
//	}
func Render(c echo.Context, component templ.Component) error {
	return hxadmin.Render(c.Response(), c.Request(), component)
}

// Layout wraps page content in the surrounding document.
type Layout func(c echo.Context, content templ.Component) templ.Component

// Router is implemented by *echo.Echo and *echo.Group.
type Router interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// ListRoute serves the document of a list page at path. The page loads
// right after the document and reads its query from the browser URL.
func ListRoute[T any](r Router, path string, page *hxadmin.ListPage[T], layout Layout) {
	r.GET(path, func(c echo.Context) error {
		return Render(c, layout(c, page.Defer(hxadmin.ListProps{}, loading)))
	})
}

// SaveRoute serves the document of a save page at path/:id. The id
// hxadmin.CreateID opens the page in creating mode.
func SaveRoute(r Router, path string, page *hxadmin.SavePage, layout Layout) {
	r.GET(path+"/:id", func(c echo.Context) error {
		return Render(c, layout(c, page.Defer(hxadmin.PropsForPath(c.Param("id")), loading)))
	})
}

var loading = templ.Raw(`<div class="loading" aria-busy="true">Loading...</div>`)
