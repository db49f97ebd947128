// Package render turns displayed geometry into drawable scenes and delivers
// them to output targets.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Target is an output that can draw a scene.
type Target interface {
	// Draw replaces whatever the target shows with s.
	Draw(ctx context.Context, s *Scene) error

	// Close releases the target.
	Close() error

	// Name returns a descriptive name for logging.
	Name() string
}

// Fanout draws every scene on each of its targets.
type Fanout []Target

func (f Fanout) Name() string {
	names := make([]string, len(f))
	for i, t := range f {
		names[i] = t.Name()
	}
	return fmt.Sprintf("Fanout(%s)", strings.Join(names, ", "))
}

func (f Fanout) Draw(ctx context.Context, s *Scene) error {
	var errs []error
	for _, t := range f {
		if err := t.Draw(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, t := range f {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every scene it is asked to draw. It is used by tests and
// by headless commands that only need the last frame.
type Recorder struct {
	mu     sync.Mutex
	scenes []*Scene
	Err    error
}

func (r *Recorder) Name() string { return "Recorder" }

func (r *Recorder) Draw(ctx context.Context, s *Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.scenes = append(r.scenes, s)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Count returns the number of scenes drawn so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scenes)
}

// Last returns the most recent scene, or nil.
func (r *Recorder) Last() *Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scenes) == 0 {
		return nil
	}
	return r.scenes[len(r.scenes)-1]
}

// Scenes returns a copy of the drawn scenes in order.
func (r *Recorder) Scenes() []*Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Scene(nil), r.scenes...)
}
