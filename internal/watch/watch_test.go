package watch

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/mesh/meshtest"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherReloads(t *testing.T) {
	path := meshtest.WriteFile(t, "tent.vtk", meshtest.TentStack(2))

	var cells atomic.Int64
	w, err := New(path, 20*time.Millisecond, func(ctx context.Context, m *mesh.Mesh) error {
		cells.Store(int64(len(m.Cells)))
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(path, []byte(meshtest.TentStack(4)), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Reloads() >= 1 })
	if cells.Load() != 9 {
		t.Errorf("expected 9 cells after reload, got %d", cells.Load())
	}

	if err := os.WriteFile(path, []byte("# vtk DataFile Version 3.0\nbroken\nASCII\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Failures() >= 1 })
	if cells.Load() != 9 {
		t.Errorf("a failed reload must not replace the mesh, got %d cells", cells.Load())
	}

	before := w.Failures()
	negative := "# vtk DataFile Version 3.0\nbroken\nASCII\nDATASET UNSTRUCTURED_GRID\nPOINTS -3 float\n"
	if err := os.WriteFile(path, []byte(negative), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Failures() > before })
	if cells.Load() != 9 {
		t.Errorf("a corrupt header must not replace the mesh, got %d cells", cells.Load())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	path := meshtest.WriteFile(t, "tent.vtk", meshtest.TentStack(1))

	var calls atomic.Int64
	w, err := New(path, 10*time.Millisecond, func(ctx context.Context, m *mesh.Mesh) error {
		calls.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	other := path + ".bak"
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("expected no reload for another file, got %d", calls.Load())
	}
}
