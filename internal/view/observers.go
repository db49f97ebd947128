package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler applies one mutation.
type Handler func(ctx context.Context, m Mutation) error

// Observers routes mutations to the handlers registered for their key.
// It replaces callback-by-decoration with explicit registration.
type Observers struct {
	mu       sync.RWMutex
	handlers map[Key][]Handler
}

func NewObservers() *Observers {
	return &Observers{handlers: make(map[Key][]Handler)}
}

// On registers h for key. Handlers run in registration order.
func (o *Observers) On(key Key, h Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[key] = append(o.handlers[key], h)
}

// OnEach registers h for every key.
func (o *Observers) OnEach(h Handler, keys ...Key) {
	for _, k := range keys {
		o.On(k, h)
	}
}

// Dispatch runs every handler for m.Key. A key with no handler is a
// configuration error.
func (o *Observers) Dispatch(ctx context.Context, m Mutation) error {
	o.mu.RLock()
	hs := append([]Handler(nil), o.handlers[m.Key]...)
	o.mu.RUnlock()

	if len(hs) == 0 {
		return fmt.Errorf("%w: no handler for %q", ErrConfiguration, m.Key)
	}
	var errs []error
	for _, h := range hs {
		if err := h(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
