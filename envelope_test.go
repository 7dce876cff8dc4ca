package hxadmin

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestDefaultMapping(t *testing.T) {
	tests := []struct {
		name      string
		env       Envelope
		wantTotal int
		wantItems int
		wantErr   error
	}{
		{"conventional", coursePage(42, "a", "b", "c"), 42, 3, nil},
		{"logical failure", FailEnvelope("denied"), 0, 0, nil},
		{"no data", Envelope{Result: true}, 0, 0, nil},
		{"wrong shape", Envelope{Result: true, Data: json.RawMessage(`[1,2]`)}, 0, 0, ErrUnexpectedEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultMapping[testCourse](tt.env)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DefaultMapping() error = %v, want %v", err, tt.wantErr)
			}
			if got.Total != tt.wantTotal || len(got.Items) != tt.wantItems {
				t.Errorf("DefaultMapping() = %+v", got)
			}
		})
	}
}

func TestDecodeDetail(t *testing.T) {
	detail, err := decodeDetail(OKEnvelope(map[string]any{"id": "c1"}))
	if err != nil || detail["id"] != "c1" {
		t.Errorf("decodeDetail() = %v, %v", detail, err)
	}

	if _, err := decodeDetail(FailEnvelope("gone")); !IsLogicalFailure(err) {
		t.Errorf("decodeDetail(failure) error = %v, want logical failure", err)
	}
	if _, err := decodeDetail(Envelope{Result: true, Data: json.RawMessage(`null`)}); !errors.Is(err, ErrUnexpectedEnvelope) {
		t.Errorf("decodeDetail(null) error = %v, want ErrUnexpectedEnvelope", err)
	}
}

func TestCRUD(t *testing.T) {
	ep := CRUD("/v1/course/")

	if ep.GetList != (Endpoint{Method: http.MethodGet, Path: "/v1/course/list"}) {
		t.Errorf("GetList = %+v", ep.GetList)
	}
	if got := ep.GetByID.Expand(map[string]string{"id": "a b/c"}); got != "/v1/course/get/a%20b%2Fc" {
		t.Errorf("Expand() = %q", got)
	}
	if ep.Update.Method != http.MethodPut || ep.Delete.Method != http.MethodDelete {
		t.Errorf("methods = %s %s", ep.Update.Method, ep.Delete.Method)
	}
}
