package hxadmin

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// HXComponent is implemented by every page through its embedded
// *Component[P].
type HXComponent interface {
	HXPrefix() string
	HXServeHTTP(w http.ResponseWriter, r *http.Request)
}

// attacher receives the registry's encoder and error handler.
type attacher interface {
	attach(enc *Encoder, onError func(http.ResponseWriter, *http.Request, error))
}

// Registry manages page registration and routing.
type Registry struct {
	mu         sync.RWMutex
	mux        *http.ServeMux
	encoder    *Encoder
	components map[string]HXComponent // by prefix

	// OnError is called when a page action fails or its props cannot be
	// decoded.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a new page registry with the given props key.
func NewRegistry(key []byte) *Registry {
	enc, err := NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("hxadmin: failed to create encoder: %v", err))
	}

	return &Registry{
		mux:        http.NewServeMux(),
		encoder:    enc,
		components: make(map[string]HXComponent),
		OnError:    defaultOnError,
	}
}

func defaultOnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case IsDecryptionError(err), IsInvalidFormat(err):
		http.Error(w, "Bad request", http.StatusBadRequest)
	default:
		slog.ErrorContext(r.Context(), "page action failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// Add registers pages with the registry.
// Panics on a prefix collision.
func (reg *Registry) Add(components ...HXComponent) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		reg.register(comp)
	}
}

func (reg *Registry) register(comp HXComponent) {
	prefix := comp.HXPrefix()
	if _, exists := reg.components[prefix]; exists {
		panic(fmt.Sprintf("hxadmin: prefix collision for %q", prefix))
	}
	reg.components[prefix] = comp

	if a, ok := comp.(attacher); ok {
		a.attach(reg.encoder, func(w http.ResponseWriter, r *http.Request, err error) {
			reg.OnError(w, r, err)
		})
	}

	reg.mux.HandleFunc(prefix+"/", comp.HXServeHTTP)
}

// Handler returns the HTTP handler for page routes.
// Mount this at "/_c/" in your application.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CSRF protection: mutating methods require HX-Request header
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if r.Header.Get("HX-Request") != "true" {
				http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
				return
			}
		}

		reg.mux.ServeHTTP(w, r)
	})
}
