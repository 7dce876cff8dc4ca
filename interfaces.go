package hxadmin

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint identifies one backend operation. Path may contain {name}
// placeholders filled from Params.Path.
//
//	Endpoint{Method: http.MethodGet, Path: "/v1/course/get/{id}"}
type Endpoint struct {
	Method string
	Path   string
}

// Expand fills the path placeholders. Values are path-escaped.
func (e Endpoint) Expand(params map[string]string) string {
	path := e.Path
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	return path
}

// Endpoints are the capability slots of one entity's API. Controllers only
// use the slots they need: lists use GetList and Delete, save pages use
// GetByID, Create and Update.
type Endpoints struct {
	GetList Endpoint
	GetByID Endpoint
	Create  Endpoint
	Update  Endpoint
	Delete  Endpoint
}

// CRUD builds the conventional endpoints under base, e.g. "/v1/course":
// list, get/{id}, create, update and delete/{id}.
func CRUD(base string) Endpoints {
	base = strings.TrimSuffix(base, "/")
	return Endpoints{
		GetList: Endpoint{Method: http.MethodGet, Path: base + "/list"},
		GetByID: Endpoint{Method: http.MethodGet, Path: base + "/get/{id}"},
		Create:  Endpoint{Method: http.MethodPost, Path: base + "/create"},
		Update:  Endpoint{Method: http.MethodPut, Path: base + "/update"},
		Delete:  Endpoint{Method: http.MethodDelete, Path: base + "/delete/{id}"},
	}
}

// Params are the inputs of one transport call.
type Params struct {
	Path  map[string]string
	Query url.Values
	Body  any
}

// Transport executes backend requests and returns the normalized envelope.
//
// A returned error means the request failed at the transport level
// (network, HTTP status). A backend that answered with result=false is not
// an error here: it is returned as an Envelope.
type Transport interface {
	Execute(ctx context.Context, ep Endpoint, params Params) (Envelope, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, ep Endpoint, params Params) (Envelope, error)

// Execute calls f.
func (f TransportFunc) Execute(ctx context.Context, ep Endpoint, params Params) (Envelope, error) {
	return f(ctx, ep, params)
}

// Navigator receives navigation requests from controllers.
//
// Navigate moves to another page (pushed to history) after a save.
// ReplaceURL rewrites the current URL in place after a filter or
// pagination change so history is not flooded.
type Navigator interface {
	Navigate(url string)
	ReplaceURL(url string)
}

// Notifier surfaces a user-visible notification. Levels are the Flash*
// constants.
type Notifier interface {
	Notify(level, message string)
}

type discard struct{}

func (discard) Navigate(string)       {}
func (discard) ReplaceURL(string)     {}
func (discard) Notify(string, string) {}
