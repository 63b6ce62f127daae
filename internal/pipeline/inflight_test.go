package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestInFlightSingleOwner(t *testing.T) {
	set := NewInFlight()
	var owners atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Acquire("/inbox/a.mkv") {
				owners.Add(1)
			}
		}()
	}
	wg.Wait()
	if owners.Load() != 1 {
		t.Fatalf("expected exactly one owner, got %d", owners.Load())
	}
	set.Release("/inbox/a.mkv")
	if set.Len() != 0 || !set.Acquire("/inbox/a.mkv") {
		t.Fatal("released path should be claimable again")
	}
}
