package hxadmin

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Envelope is the normalized wrapper around every backend response.
//
//	{"result": true, "data": {...}, "message": "..."}
//
// Result=false is a logical failure: the request reached the backend but
// produced no usable data. It is not a transport error.
type Envelope struct {
	Result  bool            `json:"result"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Values holds form values, entity details and outbound payloads.
type Values = map[string]any

// ListResult is one page of list items plus the server-side total.
type ListResult[T any] struct {
	Items []T
	Total int
}

// page is the conventional list payload under Envelope.Data.
type page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
}

// DefaultMapping maps the conventional list envelope:
//
//	{"result": true, "data": {"content": [...], "totalElements": 42}}
//
// to ListResult{Items: content, Total: totalElements}. An envelope with
// result=false maps to an empty result without error.
func DefaultMapping[T any](env Envelope) (ListResult[T], error) {
	if !env.Result {
		return ListResult[T]{}, nil
	}
	var p page[T]
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return ListResult[T]{}, fmt.Errorf("%w: %v", ErrUnexpectedEnvelope, err)
		}
	}
	return ListResult[T]{Items: p.Content, Total: p.TotalElements}, nil
}

// decodeDetail extracts an entity detail object from env.Data. Any shape
// other than a JSON object is reported as ErrUnexpectedEnvelope.
func decodeDetail(env Envelope) (Values, error) {
	if !env.Result {
		return nil, &LogicalError{Message: env.Message}
	}
	var detail Values
	if err := json.Unmarshal(env.Data, &detail); err != nil || detail == nil {
		return nil, ErrUnexpectedEnvelope
	}
	return maps.Clone(detail), nil
}
