// Package handler defines the typed-handler contract the engine dispatches
// decoded payloads to, and a name-keyed registry over a set of them.
package handler

import (
	"context"
	"fmt"

	"github.com/agendahq/agenda-go/internal/model"
)

// Handler is implemented by anything a job name can be bound to. Execute
// receives the job's payload already decoded into the shape the handler
// declares; it returns an error to signal a failed run (counted toward
// FailCount and retried per policy).
type Handler interface {
	Name() string
	Execute(ctx context.Context, payload any) error
}

// PayloadDecoder is implemented by handlers that need their payload
// converted from the store's generic map representation into a concrete
// Go type before Execute is called. Handlers that accept map[string]any
// directly need not implement it.
type PayloadDecoder interface {
	DecodePayload(data map[string]any) (any, error)
}

// Registry resolves a job name to the Handler registered for it.
type Registry struct {
	byName map[string]Handler
}

// New builds a Registry from handlers. Two handlers sharing a name is
// model.ErrDuplicateHandler.
func New(handlers ...Handler) (*Registry, error) {
	r := &Registry{byName: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if err := r.add(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(h Handler) error {
	name := h.Name()
	if name == "" {
		return fmt.Errorf("%w: handler has empty name", model.ErrInvalidArgument)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", model.ErrDuplicateHandler, name)
	}
	r.byName[name] = h
	return nil
}

// Register adds a single handler to an already-built registry — used by
// hosts that assemble handlers incrementally (e.g. per-plugin). Still
// fails with model.ErrDuplicateHandler on a name collision.
func (r *Registry) Register(h Handler) error {
	return r.add(h)
}

// Lookup resolves name to its Handler, or model.ErrUnknownHandler.
func (r *Registry) Lookup(name string) (Handler, error) {
	h, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownHandler, name)
	}
	return h, nil
}

// Decode converts data into the shape h expects, via PayloadDecoder when h
// implements it, or passes the map through unchanged otherwise.
func Decode(h Handler, data map[string]any) (any, error) {
	if decoder, ok := h.(PayloadDecoder); ok {
		return decoder.DecodePayload(data)
	}
	return data, nil
}
