package chain

import (
	"context"
	"fmt"
	"math"

	"github.com/rzbill/feedsync/internal/storage"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// AppendReadMarks stamps every mark with a fresh timestamp, writes the
// batch in one store commit and prunes the log back under MaxReadMarks. It
// returns the last timestamp allocated. An empty batch allocates nothing
// and returns the chain's last timestamp.
func (c *Chain) AppendReadMarks(ctx context.Context, marks []ReadMarkInput) (int64, error) {
	if len(marks) > c.opts.MaxReadMarks {
		return 0, fmt.Errorf("%w: %d read marks exceeds limit of %d", ErrValidation, len(marks), c.opts.MaxReadMarks)
	}
	if err := c.load(ctx); err != nil {
		return 0, err
	}
	if len(marks) == 0 {
		return c.clock.Last(), nil
	}

	var b storage.Batch
	keys := make([]string, 0, len(marks))
	for _, m := range marks {
		if m == nil {
			return 0, fmt.Errorf("%w: nil read mark", ErrValidation)
		}
		rec := m.readMark()
		rec.Timestamp = c.clock.Next()
		raw, err := encode(rec)
		if err != nil {
			return 0, err
		}
		key := readMarkKey(rec.Timestamp)
		b.Put([]byte(key), raw)
		keys = append(keys, key)
	}
	if err := c.store.Write(ctx, &b); err != nil {
		return 0, fmt.Errorf("write read marks: %w", err)
	}
	c.markKeys = append(c.markKeys, keys...)
	c.markRev.bump()

	last := c.clock.Last()
	if err := c.prune(ctx); err != nil {
		return last, err
	}
	return last, nil
}

// ListReadMarksSince returns every mark with a timestamp strictly greater
// than since, oldest first. There is no pagination; the log is bounded.
func (c *Chain) ListReadMarksSince(ctx context.Context, since int64, ifNoneMatch string) (ReadMarkList, error) {
	if err := c.load(ctx); err != nil {
		return ReadMarkList{}, err
	}
	etag := c.markRev.ETag()
	if ifNoneMatch != "" && MatchETag(ifNoneMatch, etag) {
		return ReadMarkList{ETag: etag, NotModified: true}, nil
	}
	if since < 0 {
		since = 0
	}
	if since == math.MaxInt64 {
		return ReadMarkList{Marks: []ReadMark{}, ETag: etag}, nil
	}

	entries, err := c.store.List(ctx, storage.ListOptions{
		Prefix: readMarkPrefix,
		Start:  readMarkKey(since + 1),
	})
	if err != nil {
		return ReadMarkList{}, fmt.Errorf("list read marks: %w", err)
	}
	marks := make([]ReadMark, 0, len(entries))
	for _, e := range entries {
		var rec markRecord
		if err := decode(e.Value, &rec); err != nil {
			return ReadMarkList{}, fmt.Errorf("decode read mark %s: %w", e.Key, err)
		}
		marks = append(marks, ReadMark{
			Timestamp:   rec.Timestamp,
			FeedURL:     rec.FeedURL,
			ArticleGUID: rec.ArticleGUID,
			Encrypted:   rec.Encrypted,
		})
	}
	return ReadMarkList{Marks: marks, ETag: etag}, nil
}

// prune deletes the oldest marks, at most PruneBatch keys per store call,
// until the log fits. Each delete is atomic, so an interrupted prune is
// resumed by the next load.
func (c *Chain) prune(ctx context.Context) error {
	deleted := 0
	for len(c.markKeys) > c.opts.MaxReadMarks {
		n := len(c.markKeys) - c.opts.MaxReadMarks
		if n > c.opts.PruneBatch {
			n = c.opts.PruneBatch
		}
		if err := c.store.Delete(ctx, c.markKeys[:n]...); err != nil {
			return fmt.Errorf("prune read marks: %w", err)
		}
		c.markKeys = append([]string(nil), c.markKeys[n:]...)
		deleted += n
	}
	if deleted > 0 {
		c.markRev.bump()
		c.logger.Debug("read marks pruned", logpkg.Int("deleted", deleted), logpkg.Int("kept", len(c.markKeys)))
	}
	return nil
}

// lastMarkAt returns the newest mark timestamp, or 0 with ok=false.
func (c *Chain) lastMarkAt() (int64, bool) {
	for i := len(c.markKeys) - 1; i >= 0; i-- {
		if ts, ok := parseReadMarkKey(c.markKeys[i]); ok {
			return ts, true
		}
	}
	return 0, false
}
