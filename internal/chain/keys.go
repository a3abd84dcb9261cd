package chain

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyspace inside a chain scope (c/{hex}/):
//   - meta              creation time
//   - devices           device registry, rewritten whole on every change
//   - feeds             feeds blob
//   - R_{ts:020d}       one read mark; the padding keeps string order equal
//     to numeric order
//
// The global index scope (idx/) holds one key per chain hex id.
const (
	keyMeta        = "meta"
	keyDevices     = "devices"
	keyFeeds       = "feeds"
	readMarkPrefix = "R_"

	// ChainPrefix is the backend prefix under which per-chain scopes live.
	ChainPrefix = "c/"
	// IndexPrefix is the backend prefix of the chain index.
	IndexPrefix = "idx/"
)

func scopePrefix(hex string) string { return ChainPrefix + hex + "/" }

func readMarkKey(ts int64) string {
	return fmt.Sprintf("%s%020d", readMarkPrefix, ts)
}

func parseReadMarkKey(key string) (int64, bool) {
	s, ok := strings.CutPrefix(key, readMarkPrefix)
	if !ok || len(s) != 20 {
		return 0, false
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
