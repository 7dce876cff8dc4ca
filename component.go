package hxadmin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/a-h/templ"
)

// Handler is the signature of a page action.
type Handler[P any] func(ctx context.Context, props P, r *http.Request) Result[P]

// actionDef holds metadata about a registered action.
type actionDef[P any] struct {
	name    string
	method  string
	handler Handler[P]
}

// Component[P] is the base type embedded by admin pages. P is the props
// type carried, signed, in every action URL.
//
// P must implement Encodable, and *P must implement Decodable.
//
//	type SavePage struct {
//	    *hxadmin.Component[SaveProps]
//	    ...
//	}
//
// Each component receives a deterministic URL prefix based on its name and
// source location (file:line), so two pages with different names never
// share routes.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	actions   map[string]*actionDef[P]
	render    func(ctx context.Context, props P) templ.Component
	encoder   *Encoder
	onError   func(http.ResponseWriter, *http.Request, error)
}

// New creates a component with the given name and view. The view is called
// after every action that returns an OK result.
//
// By default, props are signed (visible in URLs but tamper-proof via HMAC).
// Call Sensitive to encrypt them instead.
func New[P any](name string, render func(ctx context.Context, props P) templ.Component) *Component[P] {
	var zero P
	if _, ok := any(zero).(Encodable); !ok {
		panic(fmt.Sprintf("hxadmin: %T does not implement Encodable", zero))
	}
	if _, ok := any(&zero).(Decodable); !ok {
		panic(fmt.Sprintf("hxadmin: *%T does not implement Decodable", zero))
	}
	return &Component[P]{
		name:    name,
		prefix:  "/_c/" + name + "-" + componentHash(name, 1),
		actions: make(map[string]*actionDef[P]),
		render:  render,
	}
}

// Sensitive marks the component as sensitive, enabling full encryption of
// its props.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the component's URL prefix.
// All actions for this component are mounted under this prefix.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// IsSensitive returns whether the component uses encrypted props.
func (c *Component[P]) IsSensitive() bool {
	return c.sensitive
}

// Action registers a named action handler with default POST method. The
// empty name is the default render, served on GET.
//
//	c.Action("", c.handleRender)
//	c.Action("save", c.handleSave)
//	c.Action("delete", c.handleDelete).Method(http.MethodDelete)
func (c *Component[P]) Action(name string, h Handler[P]) *ActionBuilder {
	method := http.MethodPost
	if name == "" {
		method = http.MethodGet
	}
	def := &actionDef[P]{name: name, method: method, handler: h}
	c.actions[name] = def
	return &ActionBuilder{method: &def.method}
}

// attach is called by the registry.
func (c *Component[P]) attach(enc *Encoder, onError func(http.ResponseWriter, *http.Request, error)) {
	c.encoder = enc
	c.onError = onError
}

// Encoder returns the encoder for this component.
func (c *Component[P]) Encoder() *Encoder {
	return c.encoder
}

// URL returns the GET URL of an action with props encoded in the query.
func (c *Component[P]) URL(action string, props P) string {
	path, encoded := c.buildActionURL(action, props)
	if encoded == "" {
		return path
	}
	return path + "?p=" + encoded
}

// Wire returns the hx-get/hx-post/... attributes for an action. Targets,
// swaps and triggers are added by the view.
func (c *Component[P]) Wire(action string, props P) templ.Attributes {
	method := http.MethodGet
	if def, ok := c.actions[action]; ok {
		method = def.method
	}
	path, encoded := c.buildActionURL(action, props)
	return WireAttrs(path, method, encoded)
}

// Defer returns a placeholder that loads the component right after the
// page loads. The admin layout uses it to embed list and save pages.
func (c *Component[P]) Defer(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.URL("", props), placeholder, "load")
}

// buildActionURL returns the action path and the encoded props.
func (c *Component[P]) buildActionURL(action string, props P) (string, string) {
	path := c.prefix + "/" + action
	if c.encoder == nil {
		return path, ""
	}
	encoded, err := c.encoder.Encode(any(props).(Encodable), c.sensitive)
	if err != nil {
		return path, ""
	}
	return path, encoded
}

// HXPrefix implements HXComponent.
func (c *Component[P]) HXPrefix() string {
	return c.prefix
}

// HXServeHTTP decodes the props, routes the request to the action matching
// method and path, and writes its Result.
func (c *Component[P]) HXServeHTTP(w http.ResponseWriter, r *http.Request) {
	var props P
	if encoded := r.FormValue("p"); encoded != "" {
		if c.encoder == nil {
			c.fail(w, r, ErrInvalidFormat)
			return
		}
		dec := any(&props).(Decodable)
		if err := c.encoder.Decode(encoded, c.sensitive, dec); err != nil {
			c.fail(w, r, wrapEncodingError(err))
			return
		}
	}

	name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, c.prefix), "/")
	def, ok := c.actions[name]
	if !ok || def.method != r.Method {
		http.NotFound(w, r)
		return
	}

	result := def.handler(r.Context(), props, r)
	c.handleResult(w, r, result)
}

func (c *Component[P]) handleResult(w http.ResponseWriter, r *http.Request, result Result[P]) {
	if result.err != nil {
		c.fail(w, r, result.err)
		return
	}

	for k, v := range result.headers {
		w.Header().Set(k, v)
	}
	if h := triggerHeader(result.trigger, result.triggerData); h != "" {
		w.Header().Set("HX-Trigger", h)
	}

	flashes := append(takeFlashCookie(w, r), result.flashes...)
	if result.redirect != "" {
		setFlashCookie(w, flashes)
		w.Header().Set("HX-Redirect", result.redirect)
		return
	}

	// Render fully before writing so a render failure can still become an
	// error response.
	var buf bytes.Buffer
	if c.render != nil {
		if err := c.render(r.Context(), result.props).Render(r.Context(), &buf); err != nil {
			c.fail(w, r, err)
			return
		}
	}
	buf.WriteString(RenderFlashesOOB(flashes))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (c *Component[P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.onError != nil {
		c.onError(w, r, err)
		return
	}
	defaultOnError(w, r, err)
}

// componentHash generates a deterministic hash based on component name and
// source location.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	var input string
	if ok {
		// Use base filename only for portability across environments
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	} else {
		input = name
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4]) // 8 hex chars
}

// lazyComponent creates a placeholder that loads content on trigger.
func lazyComponent(url string, placeholder templ.Component, trigger string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div hx-get="%s" hx-trigger="%s" hx-swap="outerHTML">`,
			html.EscapeString(url), trigger)
		if err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}

// ActionBuilder configures action registration.
type ActionBuilder struct {
	method *string
}

// Method overrides the default method of an action.
//
//	c.Action("delete", c.handleDelete).Method(http.MethodDelete)
func (ab *ActionBuilder) Method(m string) *ActionBuilder {
	*ab.method = m
	return ab
}

// WireAttrs builds the minimal HTMX attributes for a component action.
//
// For GET actions, returns hx-get with props encoded in the URL query string.
// For POST/PUT/DELETE/PATCH, returns hx-post (etc.) with props in hx-vals.
func WireAttrs(path, method, encoded string) templ.Attributes {
	attrs := templ.Attributes{}

	if method == http.MethodGet || method == "" {
		url := path
		if encoded != "" {
			url = path + "?p=" + encoded
		}
		attrs["hx-get"] = url
	} else {
		switch method {
		case http.MethodPost:
			attrs["hx-post"] = path
		case http.MethodPut:
			attrs["hx-put"] = path
		case http.MethodPatch:
			attrs["hx-patch"] = path
		case http.MethodDelete:
			attrs["hx-delete"] = path
		}
		if encoded != "" {
			data, _ := json.Marshal(map[string]string{"p": encoded})
			attrs["hx-vals"] = string(data)
		}
	}

	return attrs
}
