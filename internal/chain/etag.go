package chain

import (
	"strconv"
	"strings"
	"sync"
)

// EmptyFeedsETag is reported while no feeds blob has been stored.
const EmptyFeedsETag = `W/"0"`

const weakPrefix = "W/"

// FeedsETag derives the feeds token from the client-supplied content hash,
// so replicas holding the same blob agree on the token.
func FeedsETag(hash int64) string {
	return weakPrefix + `"` + strconv.FormatInt(hash, 10) + `"`
}

// MatchETag reports whether a presented conditional token matches current.
// "*" matches anything; otherwise the token must equal current either as-is
// or with the W/ prefix removed.
func MatchETag(presented, current string) bool {
	if presented == "*" || presented == current {
		return true
	}
	return strings.HasPrefix(current, weakPrefix) && presented == current[len(weakPrefix):]
}

// revision is a "changed since" token for state that has no content hash.
// The epoch is taken when the chain loads and the counter bumps on every
// mutation, so a chain never reissues a token it handed out earlier.
type revision struct {
	tag   byte
	epoch int64
	rev   uint64
}

func (r *revision) bump() { r.rev++ }

func (r revision) ETag() string {
	var b strings.Builder
	b.WriteString(weakPrefix)
	b.WriteByte('"')
	b.WriteByte(r.tag)
	b.WriteString(strconv.FormatInt(r.epoch, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(r.rev, 10))
	b.WriteByte('"')
	return b.String()
}

// epochs is shared by every chain in the process so two loads never get the
// same epoch, even with a stalled clock.
var epochs struct {
	mu sync.Mutex
	Allocator
}

func nextEpoch(now func() int64) int64 {
	epochs.mu.Lock()
	defer epochs.mu.Unlock()
	epochs.Now = now
	return epochs.Next()
}
