package hxadmin

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// TestResult is the response of a page action, decoded for assertions.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string
	ReplacedURL     string
}

// TestAction sends one action request through the page's handler, props
// decoding and rendering included:
//
//	result, err := hxadmin.TestAction(page, page.URL("save", props), "POST", map[string]string{
//	    "name": "Go for beginners",
//	})
//	if !result.RedirectedTo("/course") {
//	    t.Fatal("expected redirect to the list")
//	}
func TestAction(comp HXComponent, actionURL, method string, formData map[string]string) (*TestResult, error) {
	return NewTestRequest(method, actionURL).WithFormValues(formData).Execute(comp)
}

// TestGet renders a page.
func TestGet(comp HXComponent, url string) (*TestResult, error) {
	return TestAction(comp, url, http.MethodGet, nil)
}

// TestPost submits formData to an action.
func TestPost(comp HXComponent, url string, formData map[string]string) (*TestResult, error) {
	return TestAction(comp, url, http.MethodPost, formData)
}

// HasFlashCookie reports whether flashes were stored for a redirect target.
func (r *TestResult) HasFlashCookie() bool {
	for _, c := range (&http.Response{Header: r.Headers}).Cookies() {
		if c.Name == flashCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// HTMLContains reports whether the body contains substr.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll reports whether the body contains every substring.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent reports whether event was sent in HX-Trigger.
func (r *TestResult) HasEvent(event string) bool {
	return slices.Contains(r.TriggeredEvents, event)
}

// HasFlash reports whether a toast with level and message was rendered.
func (r *TestResult) HasFlash(level, message string) bool {
	return slices.Contains(r.Flashes, Flash{Level: level, Message: message})
}

// HasFlashLevel reports whether any toast of level was rendered.
func (r *TestResult) HasFlashLevel(level string) bool {
	return slices.ContainsFunc(r.Flashes, func(f Flash) bool { return f.Level == level })
}

func (r *TestResult) WasRedirected() bool         { return r.RedirectURL != "" }
func (r *TestResult) RedirectedTo(url string) bool { return r.RedirectURL == url }
func (r *TestResult) IsOK() bool                   { return r.StatusCode == http.StatusOK }
func (r *TestResult) HasStatus(code int) bool      { return r.StatusCode == code }

// triggeredEvents lists the event names of an HX-Trigger value: the keys of
// its JSON form, or a comma-separated list.
func triggeredEvents(trigger string) []string {
	if strings.HasPrefix(trigger, "{") {
		var events map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &events); err != nil {
			return nil
		}
		return slices.Sorted(maps.Keys(events))
	}
	var events []string
	for _, e := range strings.Split(trigger, ",") {
		if e = strings.TrimSpace(e); e != "" {
			events = append(events, e)
		}
	}
	return events
}

// renderedFlashes extracts the toasts from out-of-band swap HTML, i.e.
// <div class="toast toast-{level}">{message}</div>.
func renderedFlashes(body string) []Flash {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var flashes []Flash
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "div" {
			continue
		}
		for _, a := range n.Attr {
			level, ok := strings.CutPrefix(a.Val, "toast toast-")
			if a.Key != "class" || !ok {
				continue
			}
			var text strings.Builder
			for c := range n.Descendants() {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			flashes = append(flashes, Flash{Level: level, Message: text.String()})
		}
	}
	return flashes
}

// TestRequestBuilder builds an action request with extra headers:
//
//	result, err := hxadmin.NewTestRequest("GET", page.URL("", hxadmin.ListProps{})).
//	    WithHeader("HX-Current-URL", "http://localhost/course?page=3").
//	    Execute(page)
type TestRequestBuilder struct {
	method   string
	url      string
	formData map[string]string
	headers  map[string]string
}

// NewTestRequest starts a request. HX-Request is always set.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string]string),
		headers:  make(map[string]string),
	}
}

// WithFormValues adds form values. GET and DELETE send them in the query
// string, as htmx does.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	maps.Copy(b.formData, data)
	return b
}

// WithHeader sets a request header.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// Execute serves the request with comp.
func (b *TestRequestBuilder) Execute(comp HXComponent) (*TestResult, error) {
	form := url.Values{}
	for k, v := range b.formData {
		form.Set(k, v)
	}

	target := b.url
	body := strings.NewReader("")
	inQuery := b.method == http.MethodGet || b.method == http.MethodDelete
	switch {
	case len(form) == 0:
	case inQuery:
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + form.Encode()
	default:
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(b.method, target, body)
	req.Header.Set("HX-Request", "true")
	if len(form) > 0 && !inQuery {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	comp.HXServeHTTP(rec, req)

	return &TestResult{
		HTML:            rec.Body.String(),
		StatusCode:      rec.Code,
		Headers:         rec.Header(),
		TriggeredEvents: triggeredEvents(rec.Header().Get("HX-Trigger")),
		Flashes:         renderedFlashes(rec.Body.String()),
		RedirectURL:     rec.Header().Get("HX-Redirect"),
		ReplacedURL:     rec.Header().Get("HX-Replace-Url"),
	}, nil
}

// Call is one request seen by a StubTransport.
type Call struct {
	Endpoint Endpoint
	Params   Params
}

// StubTransport is a Transport for tests. It records every call and answers
// with Handler, or with an empty successful envelope when Handler is nil.
type StubTransport struct {
	Handler func(ctx context.Context, ep Endpoint, params Params) (Envelope, error)

	mu    sync.Mutex
	calls []Call
}

// Execute implements Transport.
func (s *StubTransport) Execute(ctx context.Context, ep Endpoint, params Params) (Envelope, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Endpoint: ep, Params: params})
	s.mu.Unlock()
	if s.Handler == nil {
		return Envelope{Result: true}, nil
	}
	return s.Handler(ctx, ep, params)
}

// Calls returns the recorded calls in order.
func (s *StubTransport) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsTo returns the recorded calls to ep.
func (s *StubTransport) CallsTo(ep Endpoint) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Endpoint == ep {
			out = append(out, c)
		}
	}
	return out
}

// OKEnvelope returns a successful envelope carrying data as JSON.
// It panics if data cannot be marshaled.
func OKEnvelope(data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(fmt.Sprintf("hxadmin: OKEnvelope: %v", err))
	}
	return Envelope{Result: true, Data: raw}
}

// FailEnvelope returns a logical failure envelope with message.
func FailEnvelope(message string) Envelope {
	return Envelope{Result: false, Message: message}
}
