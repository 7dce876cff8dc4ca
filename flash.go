package hxadmin

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Flash levels for toast notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// flashCookie carries flashes across an HX-Redirect, where the response
// body is never swapped in.
const flashCookie = "hxadmin_flash"

// Flash represents a one-time notification message.
//
// Flash messages are rendered as out-of-band (OOB) swaps that append to
// the #toasts container:
//
//	return hxadmin.OK(props).Flash(hxadmin.FlashSuccess, "Course saved")
type Flash struct {
	Level   string // success, error, warning, info
	Message string
}

// RenderFlashesOOB renders flashes as OOB swap HTML targeting #toasts.
//
// The data-auto-dismiss attribute tells the layout script to remove the
// toast after the given delay in milliseconds.
func RenderFlashesOOB(flashes []Flash) string {
	if len(flashes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div id="toasts" hx-swap-oob="beforeend">`)

	for _, f := range flashes {
		sb.WriteString(`<div class="toast toast-`)
		sb.WriteString(html.EscapeString(f.Level))
		sb.WriteString(`" data-auto-dismiss="3000">`)
		sb.WriteString(html.EscapeString(f.Message))
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

// ToastContainer returns a templ component for the toast container.
// The admin layout renders it once near the end of <body>.
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="toasts" class="toast-container"></div>`)
		return err
	})
}

// setFlashCookie stores flashes for the page the browser is redirected to.
func setFlashCookie(w http.ResponseWriter, flashes []Flash) {
	if len(flashes) == 0 {
		return
	}
	v := url.Values{}
	for _, f := range flashes {
		v.Add(f.Level, f.Message)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    v.Encode(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashCookie returns flashes stored by a previous redirect and expires
// the cookie.
func takeFlashCookie(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	v, err := url.ParseQuery(c.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	for _, level := range []string{FlashSuccess, FlashInfo, FlashWarning, FlashError} {
		for _, msg := range v[level] {
			flashes = append(flashes, Flash{Level: level, Message: msg})
		}
	}
	return flashes
}

// effects records the navigation and notification requests a controller
// makes while one action runs, so the action can turn them into response
// headers and toasts.
type effects struct {
	flashes  []Flash
	navigate string
	replace  string
}

func (e *effects) Navigate(url string)   { e.navigate = url }
func (e *effects) ReplaceURL(url string) { e.replace = url }

func (e *effects) Notify(level, message string) {
	e.flashes = append(e.flashes, Flash{Level: level, Message: message})
}

// apply copies the recorded effects onto r. A navigation becomes an
// HX-Redirect; a URL replacement becomes HX-Replace-Url.
func apply[P any](e *effects, r Result[P]) Result[P] {
	for _, f := range e.flashes {
		r = r.Flash(f.Level, f.Message)
	}
	if e.navigate != "" {
		r.redirect = e.navigate
	}
	if e.replace != "" {
		r = r.ReplaceURL(e.replace)
	}
	return r
}
