package chain

import (
	"context"
	"errors"
	"testing"
)

func TestFeedsFirstWriteThenPreconditionRequired(t *testing.T) {
	ctx := context.Background()
	tc := newTestChain(t, newBackend(t), Options{})

	empty, err := tc.GetFeeds(ctx, "")
	if err != nil || empty.Status != FeedsEmpty || empty.ETag != EmptyFeedsETag {
		t.Fatalf("expected empty feeds, got %+v %v", empty, err)
	}

	if _, err := tc.UpdateFeeds(ctx, "", Feeds{ContentHash: 1, Encrypted: "a"}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err = tc.UpdateFeeds(ctx, "", Feeds{ContentHash: 2, Encrypted: "b"})
	if !errors.Is(err, ErrPreconditionRequired) {
		t.Fatalf("expected ErrPreconditionRequired, got %v", err)
	}
}

func TestFeedsFirstWriteIgnoresIfMatch(t *testing.T) {
	ctx := context.Background()
	tc := newTestChain(t, newBackend(t), Options{})
	if _, err := tc.UpdateFeeds(ctx, `W/"999"`, Feeds{ContentHash: 5}); err != nil {
		t.Fatalf("first write must ignore If-Match: %v", err)
	}
}

func TestFeedsScenario(t *testing.T) {
	ctx := context.Background()
	tc := newTestChain(t, newBackend(t), Options{})

	got, err := tc.UpdateFeeds(ctx, "", Feeds{ContentHash: 42, Encrypted: "abc"})
	if err != nil || got.ContentHash != 42 {
		t.Fatalf("update: %+v %v", got, err)
	}
	res, err := tc.GetFeeds(ctx, "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Status != FeedsOK || res.ETag != FeedsETag(42) || res.Feeds.Encrypted != "abc" {
		t.Fatalf("unexpected feeds %+v", res)
	}
	tok42 := res.ETag

	if _, err := tc.UpdateFeeds(ctx, tok42, Feeds{ContentHash: 43, Encrypted: "def"}); err != nil {
		t.Fatalf("update with current token: %v", err)
	}
	_, err = tc.UpdateFeeds(ctx, tok42, Feeds{ContentHash: 44, Encrypted: "ghi"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	res, _ = tc.GetFeeds(ctx, "")
	if res.Feeds.ContentHash != 43 || res.Feeds.Encrypted != "def" {
		t.Fatalf("stale update must not change the blob, got %+v", res.Feeds)
	}
	nm, _ := tc.GetFeeds(ctx, `"43"`)
	if nm.Status != FeedsNotModified {
		t.Fatalf("expected not modified for stripped weak token, got %v", nm.Status)
	}
}

func TestFeedsWildcardAlwaysWins(t *testing.T) {
	ctx := context.Background()
	tc := newTestChain(t, newBackend(t), Options{})
	for i := int64(1); i <= 3; i++ {
		if _, err := tc.UpdateFeeds(ctx, "*", Feeds{ContentHash: i}); err != nil {
			t.Fatalf("update %d with *: %v", i, err)
		}
	}
	res, _ := tc.GetFeeds(ctx, "")
	if res.ETag != FeedsETag(3) {
		t.Fatalf("unexpected token %s", res.ETag)
	}
}
