package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzbill/feedsync/internal/storage"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// GetFeeds returns the stored blob, FeedsNotModified when ifNoneMatch
// matches the current token, or FeedsEmpty before the first update.
func (c *Chain) GetFeeds(ctx context.Context, ifNoneMatch string) (FeedsResult, error) {
	if err := c.load(ctx); err != nil {
		return FeedsResult{}, err
	}
	if ifNoneMatch != "" && MatchETag(ifNoneMatch, c.feedsETag) {
		return FeedsResult{Status: FeedsNotModified, ETag: c.feedsETag}, nil
	}
	if !c.hasFeeds {
		return FeedsResult{Status: FeedsEmpty, ETag: c.feedsETag}, nil
	}
	raw, err := c.store.Get(ctx, keyFeeds)
	if errors.Is(err, storage.ErrNotFound) {
		return FeedsResult{Status: FeedsEmpty, ETag: c.feedsETag}, nil
	}
	if err != nil {
		return FeedsResult{}, fmt.Errorf("load feeds: %w", err)
	}
	var fr feedsRecord
	if err := decode(raw, &fr); err != nil {
		return FeedsResult{}, fmt.Errorf("decode feeds: %w", err)
	}
	return FeedsResult{
		Status: FeedsOK,
		Feeds:  Feeds{ContentHash: fr.Hash, Encrypted: fr.Encrypted},
		ETag:   c.feedsETag,
	}, nil
}

// UpdateFeeds replaces the blob. The first write is unconditional and
// ignores ifMatch. Once a blob exists ifMatch is mandatory
// (ErrPreconditionRequired) and must match the current token (ErrConflict).
func (c *Chain) UpdateFeeds(ctx context.Context, ifMatch string, blob Feeds) (Feeds, error) {
	if err := c.load(ctx); err != nil {
		return Feeds{}, err
	}
	if c.hasFeeds {
		if ifMatch == "" {
			return Feeds{}, ErrPreconditionRequired
		}
		if !MatchETag(ifMatch, c.feedsETag) {
			return Feeds{}, fmt.Errorf("%w: have %s, got %s", ErrConflict, c.feedsETag, ifMatch)
		}
	}
	raw, err := encode(feedsRecord{Hash: blob.ContentHash, Encrypted: blob.Encrypted})
	if err != nil {
		return Feeds{}, err
	}
	if err := c.store.Put(ctx, keyFeeds, raw); err != nil {
		return Feeds{}, fmt.Errorf("write feeds: %w", err)
	}
	c.hasFeeds = true
	c.feedsETag = FeedsETag(blob.ContentHash)
	c.logger.Debug("feeds updated", logpkg.Int64("hash", blob.ContentHash))
	return blob, nil
}
