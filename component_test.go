package hxadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

type counterProps struct {
	Count string
}

func (p counterProps) HXEncode() map[string]any {
	return map[string]any{"c": p.Count}
}

func (p *counterProps) HXDecode(m map[string]any) error {
	var err error
	p.Count, err = stringProp(m, "c")
	return err
}

func newCounter(name string) *Component[counterProps] {
	c := New[counterProps](name, func(ctx context.Context, p counterProps) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, `<div class="counter">%s</div>`, p.Count)
			return err
		})
	})
	c.Action("", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return OK(p)
	})
	c.Action("increment", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		p.Count += "+"
		return OK(p).Flash(FlashSuccess, "incremented").Trigger("counter:changed")
	})
	c.Action("reset", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return Redirect[counterProps]("/counters").Flash(FlashInfo, "reset")
	}).Method(http.MethodDelete)
	c.Action("boom", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return Err(p, ErrNotFound)
	})
	return c
}

func TestComponentDispatch(t *testing.T) {
	reg := NewRegistry([]byte("test-key"))
	c := newCounter("counter")
	reg.Add(c)

	result, err := TestGet(c, c.URL("", counterProps{Count: "1"}))
	if err != nil {
		t.Fatalf("TestGet() error = %v", err)
	}
	if !result.IsOK() || !result.HTMLContains(`<div class="counter">1</div>`) {
		t.Errorf("render = %d %q, want the counter", result.StatusCode, result.HTML)
	}

	attrs := c.Wire("increment", counterProps{Count: "1"})
	path, ok := attrs["hx-post"].(string)
	if !ok {
		t.Fatalf("Wire(increment) = %v, want hx-post", attrs)
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(attrs["hx-vals"].(string), `{"p":"`), `"}`)
	result, err = TestPost(c, path, map[string]string{"p": encoded})
	if err != nil {
		t.Fatalf("TestPost() error = %v", err)
	}
	if !result.HTMLContains(`<div class="counter">1+</div>`) {
		t.Errorf("HTML = %q, want incremented counter", result.HTML)
	}
	if !result.HasFlash(FlashSuccess, "incremented") {
		t.Errorf("Flashes = %v, want success flash", result.Flashes)
	}
	if !result.HasEvent("counter:changed") {
		t.Errorf("TriggeredEvents = %v, want counter:changed", result.TriggeredEvents)
	}
}

func TestComponentDispatch_MethodMismatch(t *testing.T) {
	c := newCounter("counter")

	result, err := TestGet(c, c.Prefix()+"/increment")
	if err != nil {
		t.Fatalf("TestGet() error = %v", err)
	}
	if !result.HasStatus(http.StatusNotFound) {
		t.Errorf("StatusCode = %d, want 404", result.StatusCode)
	}
}

func TestComponentDispatch_RedirectCarriesFlashes(t *testing.T) {
	reg := NewRegistry([]byte("test-key"))
	c := newCounter("counter")
	reg.Add(c)

	result, err := TestAction(c, c.Prefix()+"/reset", http.MethodDelete, nil)
	if err != nil {
		t.Fatalf("TestAction() error = %v", err)
	}
	if !result.RedirectedTo("/counters") {
		t.Errorf("RedirectURL = %q, want /counters", result.RedirectURL)
	}
	if result.HTML != "" {
		t.Errorf("HTML = %q, want empty body on redirect", result.HTML)
	}
	if !result.HasFlashCookie() {
		t.Error("redirect should store its flashes in a cookie")
	}

	// The next request shows the stored flash.
	req := httptest.NewRequest(http.MethodGet, c.URL("", counterProps{Count: "0"}), nil)
	for _, ck := range (&http.Response{Header: result.Headers}).Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.HXServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `<div class="toast toast-info" data-auto-dismiss="3000">reset</div>`) {
		t.Errorf("body = %q, want the carried flash", rec.Body.String())
	}
}

func TestComponentDispatch_Errors(t *testing.T) {
	reg := NewRegistry([]byte("test-key"))
	var captured error
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		captured = err
		http.Error(w, "custom", http.StatusTeapot)
	}
	c := newCounter("counter")
	reg.Add(c)

	tests := []struct {
		name    string
		url     string
		method  string
		wantErr error
	}{
		{"handler error", c.Prefix() + "/boom", http.MethodPost, ErrNotFound},
		{"tampered props", c.Prefix() + "/?p=bm90LXNpZ25lZA.AAAA", http.MethodGet, ErrSignatureInvalid},
		{"malformed props", c.Prefix() + "/?p=garbage", http.MethodGet, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil
			result, err := TestAction(c, tt.url, tt.method, nil)
			if err != nil {
				t.Fatalf("TestAction() error = %v", err)
			}
			if !errors.Is(captured, tt.wantErr) {
				t.Errorf("OnError got %v, want %v", captured, tt.wantErr)
			}
			if !result.HasStatus(http.StatusTeapot) {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, http.StatusTeapot)
			}
		})
	}
}

func TestDefaultOnError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrSignatureInvalid, http.StatusBadRequest},
		{ErrInvalidFormat, http.StatusBadRequest},
		{errors.New("backend down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			defaultOnError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRegistry_PrefixCollision(t *testing.T) {
	reg := NewRegistry([]byte("test-key"))
	c := newCounter("counter")
	reg.Add(c)

	defer func() {
		if recover() == nil {
			t.Error("Add() of the same component twice should panic")
		}
	}()
	reg.Add(c)
}

func TestRegistry_RequiresHTMXForMutations(t *testing.T) {
	reg := NewRegistry([]byte("test-key"))
	c := newCounter("counter")
	reg.Add(c)

	req := httptest.NewRequest(http.MethodPost, c.Prefix()+"/increment", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without HX-Request: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, c.URL("", counterProps{Count: "3"}), nil)
	rec = httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET without HX-Request: status = %d, want 200", rec.Code)
	}
}

func TestComponentPrefixIsStable(t *testing.T) {
	a := newCounter("alpha")
	b := newCounter("beta")

	if !strings.HasPrefix(a.Prefix(), "/_c/alpha-") {
		t.Errorf("Prefix() = %q, want /_c/alpha-<hash>", a.Prefix())
	}
	if a.Prefix() == b.Prefix() {
		t.Errorf("different names share prefix %q", a.Prefix())
	}
	if again := newCounter("alpha"); again.Prefix() != a.Prefix() {
		t.Errorf("Prefix() = %q, want %q for the same name and call site", again.Prefix(), a.Prefix())
	}
}

func TestWireAttrs(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		wantAttr string
		wantURL  string
		wantVals bool
	}{
		{"GET", http.MethodGet, "hx-get", "/x/a?p=enc", false},
		{"empty defaults to GET", "", "hx-get", "/x/a?p=enc", false},
		{"POST", http.MethodPost, "hx-post", "/x/a", true},
		{"PUT", http.MethodPut, "hx-put", "/x/a", true},
		{"PATCH", http.MethodPatch, "hx-patch", "/x/a", true},
		{"DELETE", http.MethodDelete, "hx-delete", "/x/a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := WireAttrs("/x/a", tt.method, "enc")
			if attrs[tt.wantAttr] != tt.wantURL {
				t.Errorf("%s = %v, want %q", tt.wantAttr, attrs[tt.wantAttr], tt.wantURL)
			}
			_, hasVals := attrs["hx-vals"]
			if hasVals != tt.wantVals {
				t.Errorf("hx-vals present = %v, want %v", hasVals, tt.wantVals)
			}
			if tt.wantVals && attrs["hx-vals"] != `{"p":"enc"}` {
				t.Errorf("hx-vals = %v, want %q", attrs["hx-vals"], `{"p":"enc"}`)
			}
		})
	}
}

func TestComponentDefer(t *testing.T) {
	c := newCounter("counter")

	var sb strings.Builder
	if err := c.Defer(counterProps{}, ErrorComponent("loading")).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := `<div hx-get="` + c.Prefix() + `/" hx-trigger="load" hx-swap="outerHTML">`
	if !strings.HasPrefix(sb.String(), want) {
		t.Errorf("Defer() = %q, want prefix %q", sb.String(), want)
	}
}
