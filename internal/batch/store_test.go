package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res := &Result{
		BatchID: "batch-1",
		Summary: Summary{Total: 2, Created: 2},
	}

	if err := store.Put(ctx, res); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "batch-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Summary != res.Summary {
		t.Errorf("Summary = %+v, want %+v", got.Summary, res.Summary)
	}
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrBatchNotFound) {
		t.Errorf("Get() error = %v, want ErrBatchNotFound", err)
	}
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, &Result{BatchID: "b", Summary: Summary{Total: 1}})
	store.Put(ctx, &Result{BatchID: "b", Summary: Summary{Total: 5}})

	got, err := store.Get(ctx, "b")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Summary.Total != 5 {
		t.Errorf("Total = %d, want 5", got.Summary.Total)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("batch-%d", i)
			if err := store.Put(ctx, &Result{BatchID: id}); err != nil {
				t.Errorf("Put(%s) error = %v", id, err)
				return
			}
			if _, err := store.Get(ctx, id); err != nil {
				t.Errorf("Get(%s) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Errorf("Len() = %d, want 20", store.Len())
	}
}
