package chain

import "testing"

func TestAllocatorFrozenClock(t *testing.T) {
	a := Allocator{Now: func() int64 { return 1000 }}
	prev := int64(0)
	for i := 0; i < 50; i++ {
		ts := a.Next()
		if ts <= prev {
			t.Fatalf("timestamp %d not greater than %d", ts, prev)
		}
		prev = ts
	}
	if a.Last() != 1049 {
		t.Fatalf("expected 1049, got %d", a.Last())
	}
}

func TestAllocatorBackwardClock(t *testing.T) {
	now := int64(5000)
	a := Allocator{Now: func() int64 { return now }}
	first := a.Next()
	now = 10
	second := a.Next()
	if second != first+1 {
		t.Fatalf("expected %d after clock regression, got %d", first+1, second)
	}
	now = 9000
	if got := a.Next(); got != 9000 {
		t.Fatalf("expected allocator to follow the clock forward, got %d", got)
	}
}

func TestNextEpochDistinctUnderFrozenClock(t *testing.T) {
	frozen := func() int64 { return 42 }
	a, b := nextEpoch(frozen), nextEpoch(frozen)
	if a == b {
		t.Fatalf("expected distinct epochs, got %d twice", a)
	}
}
