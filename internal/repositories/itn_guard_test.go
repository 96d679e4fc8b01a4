package repositories

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	g.nowFn = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := g.Acquire(ctx, "itn:1", time.Minute)
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := g.Acquire(ctx, "itn:1", time.Minute); ok {
		t.Fatal("second acquire should be refused while held")
	}
	if ok, _ := g.Acquire(ctx, "itn:2", time.Minute); !ok {
		t.Fatal("other keys are independent")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := g.Acquire(ctx, "itn:1", time.Minute); !ok {
		t.Fatal("expired lock should be reacquirable")
	}

	_ = g.Release(ctx, "itn:1")
	if ok, _ := g.Acquire(ctx, "itn:1", time.Minute); !ok {
		t.Fatal("released lock should be reacquirable")
	}
}
