package chain

import (
	"context"
	"testing"

	"github.com/rzbill/feedsync/internal/storage"
)

func TestJoinThenRemoveMakesEligible(t *testing.T) {
	ctx := context.Background()
	tc := newTestChain(t, newBackend(t), Options{})
	j, err := tc.Join(ctx, "phone")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if ok, _ := tc.IsEligibleForDeletion(ctx); ok {
		t.Fatalf("fresh chain with a device must not be eligible")
	}
	if ok, _ := tc.RemoveDevice(ctx, j.DeviceID); !ok {
		t.Fatalf("expected device removed")
	}
	list, _ := tc.ListDevices(ctx, "")
	if len(list.Devices) != 0 {
		t.Fatalf("expected empty registry, got %+v", list.Devices)
	}
	if ok, _ := tc.IsEligibleForDeletion(ctx); !ok {
		t.Fatalf("chain without devices must be eligible")
	}
}

func TestEligibilityByAge(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(1_000_000_000_000)
	tc := newTestChain(t, newBackend(t), Options{Now: clock.Now})

	// Zero devices, zero marks, created 91 days ago.
	if _, err := tc.DeviceCount(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	clock.Advance(91 * day)
	if ok, _ := tc.IsEligibleForDeletion(ctx); !ok {
		t.Fatalf("old empty chain must be eligible")
	}

	// One active device: it has marked something recently.
	if _, err := tc.Join(ctx, "phone"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := tc.AppendReadMarks(ctx, []ReadMarkInput{plain("a")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	clock.Advance(10 * day)
	count, _ := tc.DeviceCount(ctx)
	if count.Count != 1 || count.EligibleForDeletion {
		t.Fatalf("chain with an active device must not be eligible: %+v", count)
	}

	// Marks stop; once the newest is older than the window it is eligible.
	clock.Advance(81 * day)
	if ok, _ := tc.IsEligibleForDeletion(ctx); !ok {
		t.Fatalf("expected eligible after 91 idle days")
	}
}

func TestEligibilityRequiresOldCreation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(1_000_000_000_000)
	tc := newTestChain(t, newBackend(t), Options{Now: clock.Now})
	if _, err := tc.Join(ctx, "phone"); err != nil {
		t.Fatalf("join: %v", err)
	}
	clock.Advance(89 * day)
	if ok, _ := tc.IsEligibleForDeletion(ctx); ok {
		t.Fatalf("young chain with a device must not be eligible even without marks")
	}
	clock.Advance(2 * day)
	if ok, _ := tc.IsEligibleForDeletion(ctx); !ok {
		t.Fatalf("old chain with a device and no marks counts as idle")
	}
}

func TestSelfDestructWipesEverything(t *testing.T) {
	ctx := context.Background()
	be := newBackend(t)
	tc := newTestChain(t, be, Options{})
	j, _ := tc.Join(ctx, "phone")
	if _, err := tc.AppendReadMarks(ctx, plainBatch(3)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := tc.UpdateFeeds(ctx, "", Feeds{ContentHash: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if ok, err := tc.SelfDestructIfEligible(ctx); err != nil || ok {
		t.Fatalf("chain with a device must survive: %v %v", ok, err)
	}
	if _, err := tc.RemoveDevice(ctx, j.DeviceID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, err := tc.SelfDestructIfEligible(ctx)
	if err != nil || !ok {
		t.Fatalf("expected deletion: %v %v", ok, err)
	}

	n := 0
	_ = be.Scan(ctx, nil, nil, 0, func(k, _ []byte) error { n++; return nil })
	if n != 0 {
		t.Fatalf("expected empty backend after wipe, found %d keys", n)
	}

	res, err := tc.GetFeeds(ctx, "")
	if err != nil || res.Status != FeedsEmpty {
		t.Fatalf("wiped chain must behave as new: %+v %v", res, err)
	}
	list, _ := tc.ListReadMarksSince(ctx, 0, "")
	if len(list.Marks) != 0 {
		t.Fatalf("wiped chain still has marks")
	}

	if _, err := tc.SelfDestructIfEligible(ctx); err != nil {
		t.Fatalf("second self destruct: %v", err)
	}
	idx, _ := storage.Scoped(be, IndexPrefix).List(ctx, storage.ListOptions{})
	if len(idx) != 0 {
		t.Fatalf("index entry must be gone, found %d", len(idx))
	}
}
