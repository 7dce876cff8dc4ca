package devapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// envelope mirrors hxadmin.Envelope on the wire.
type envelope struct {
	Result  bool   `json:"result"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type page struct {
	Content       []Record `json:"content"`
	TotalElements int      `json:"totalElements"`
}

type api struct {
	store *Store
}

// NewServer returns the backend routes under /v1/{collection}: list, get,
// create, update and delete.
func NewServer(store *Store, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = newHTTPErrorHandler(logger)

	a := api{store: store}
	g := e.Group("/v1/:collection")
	g.GET("/list", a.list)
	g.GET("/get/:id", a.get)
	g.POST("/create", a.create)
	g.PUT("/update", a.update)
	g.DELETE("/delete/:id", a.delete)
	return e
}

func (a *api) list(c echo.Context) error {
	index, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	q := ListQuery{Sort: c.QueryParam("sort"), Page: index, Size: size, Filter: map[string]string{}}
	for k, v := range c.QueryParams() {
		if k == "page" || k == "size" || k == "sort" || len(v) == 0 || v[0] == "" {
			continue
		}
		q.Filter[k] = v[0]
	}

	items, total, err := a.store.List(c.Param("collection"), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Result: true, Data: page{Content: items, TotalElements: total}})
}

func (a *api) get(c echo.Context) error {
	rec, err := a.store.Get(c.Param("collection"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Result: true, Data: rec})
}

func (a *api) create(c echo.Context) error {
	data, err := bindRecord(c)
	if err != nil {
		return err
	}
	rec, err := a.store.Create(c.Param("collection"), data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Result: true, Data: rec})
}

func (a *api) update(c echo.Context) error {
	data, err := bindRecord(c)
	if err != nil {
		return err
	}
	rec, err := a.store.Update(c.Param("collection"), data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Result: true, Data: rec})
}

func (a *api) delete(c echo.Context) error {
	if err := a.store.Delete(c.Param("collection"), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Result: true})
}

// bindRecord decodes the JSON body only; path and query parameters must
// not leak into the record.
func bindRecord(c echo.Context) (Record, error) {
	data := Record{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// newHTTPErrorHandler answers store failures the way the real backend
// does: duplicates are logical failures with status 200, missing records
// are 404 and anything else is a 500.
func newHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := envelope{Message: http.StatusText(code)}

		cause := errors.Cause(err)
		var herr *echo.HTTPError
		switch {
		case cause == errDuplicate:
			code = http.StatusOK
			body.Message = err.Error()
		case cause == errNotFound:
			code = http.StatusNotFound
			body.Message = err.Error()
		case errors.As(err, &herr):
			code = herr.Code
			body.Message = http.StatusText(code)
			if m, ok := herr.Message.(string); ok {
				body.Message = m
			}
		default:
			logger.ErrorContext(c.Request().Context(), "devapi request failed",
				"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}

		if err := c.JSON(code, body); err != nil {
			logger.WarnContext(c.Request().Context(), "devapi write failed", "error", err)
		}
	}
}
