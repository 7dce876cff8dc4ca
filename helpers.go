package hxadmin

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
)

// Render writes component as an HTML response. Page actions don't need it;
// it serves the documents that host pages.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX reports whether the request was sent by HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// CurrentURL returns the browser's address from HX-Current-URL, which is
// not the request URL for page actions.
func CurrentURL(r *http.Request) string {
	return r.Header.Get("HX-Current-URL")
}

// CurrentQuery returns the raw query string of CurrentURL.
// List actions fall back to it when their props carry no query.
func CurrentQuery(r *http.Request) string {
	u, err := url.Parse(CurrentURL(r))
	if err != nil {
		return ""
	}
	return u.RawQuery
}

// triggerHeader builds an HX-Trigger value: the bare event name, or
// {"course:deleted": {"id": "42"}} when there is data.
func triggerHeader(trigger string, data map[string]any) string {
	if trigger == "" {
		return ""
	}
	if data == nil {
		return trigger
	}
	b, _ := json.Marshal(map[string]any{trigger: data})
	return string(b)
}
