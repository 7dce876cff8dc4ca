package hxadmin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
)

func TestRequestHeaders(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantHTMX  bool
		wantURL   string
		wantQuery string
	}{
		{"plain browser request", nil, false, "", ""},
		{"HX-Request must be exactly true", map[string]string{"HX-Request": "yes"}, false, "", ""},
		{
			"list action",
			map[string]string{"HX-Request": "true", "HX-Current-URL": "http://localhost/course?name=go&page=2"},
			true, "http://localhost/course?name=go&page=2", "name=go&page=2",
		},
		{
			"no query",
			map[string]string{"HX-Request": "true", "HX-Current-URL": "http://localhost/course"},
			true, "http://localhost/course", "",
		},
		{
			"malformed current url",
			map[string]string{"HX-Request": "true", "HX-Current-URL": "http://[::1"},
			true, "http://[::1", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/_c/course-x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := IsHTMX(req); got != tt.wantHTMX {
				t.Errorf("IsHTMX() = %v, want %v", got, tt.wantHTMX)
			}
			if got := CurrentURL(req); got != tt.wantURL {
				t.Errorf("CurrentURL() = %q, want %q", got, tt.wantURL)
			}
			if got := CurrentQuery(req); got != tt.wantQuery {
				t.Errorf("CurrentQuery() = %q, want %q", got, tt.wantQuery)
			}
		})
	}
}

func TestRenderHelper(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/course", nil)
	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<h1>Courses</h1>")
		return err
	})

	if err := Render(rec, req, page); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "<h1>Courses</h1>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestTriggerHeader(t *testing.T) {
	tests := []struct {
		trigger string
		data    map[string]any
		want    string
	}{
		{"", map[string]any{"id": "1"}, ""},
		{"course:deleted", nil, "course:deleted"},
		{"course:deleted", map[string]any{"id": "1"}, `{"course:deleted":{"id":"1"}}`},
	}
	for _, tt := range tests {
		if got := triggerHeader(tt.trigger, tt.data); got != tt.want {
			t.Errorf("triggerHeader(%q, %v) = %s, want %s", tt.trigger, tt.data, got, tt.want)
		}
	}
}
