package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManagerRunsAndCollectsErrors(t *testing.T) {
	g := NewManager(4)
	errBoom := errors.New("boom")

	var ran atomic.Int32
	for i := range 3 {
		g.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			if i == 1 {
				return errBoom
			}
			return nil
		})
	}

	if err := g.Wait(); !errors.Is(err, errBoom) {
		t.Fatalf("Wait() error = %v, want %v", err, errBoom)
	}
	if ran.Load() != 3 {
		t.Fatalf("ran = %d, want 3", ran.Load())
	}
}

func TestManagerRecoversPanic(t *testing.T) {
	g := NewManager(1)
	g.Go(context.Background(), func(context.Context) error { panic("bad") })

	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestManagerClosedDropsWork(t *testing.T) {
	g := NewManager(1)
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	var ran atomic.Bool
	g.Go(context.Background(), func(context.Context) error {
		ran.Store(true)
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if ran.Load() {
		t.Fatalf("closed manager must not run new work")
	}
}

func TestManagerCanceledContext(t *testing.T) {
	g := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	g.Go(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if ran.Load() {
		t.Fatalf("canceled task must not run")
	}
}

func TestNilManager(t *testing.T) {
	var g *Manager
	g.Go(context.Background(), func(context.Context) error { return nil })
	if err := g.Wait(); err != nil {
		t.Fatalf("nil Wait() error = %v", err)
	}
}
