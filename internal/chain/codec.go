package chain

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Stored value shapes. Field tags are the on-disk names.

type metaRecord struct {
	CreatedAt int64 `msgpack:"created_at"`
}

type deviceRecord struct {
	ID   int64  `msgpack:"id"`
	Name string `msgpack:"name"`
}

type feedsRecord struct {
	Hash      int64  `msgpack:"hash"`
	Encrypted string `msgpack:"encrypted"`
}

// markRecord holds either the plain or the encrypted fields. Nothing records
// which; the reader decides.
type markRecord struct {
	Timestamp   int64  `msgpack:"ts"`
	FeedURL     string `msgpack:"feed_url,omitempty"`
	ArticleGUID string `msgpack:"article_guid,omitempty"`
	Encrypted   string `msgpack:"encrypted,omitempty"`
}

func encode(v interface{}) ([]byte, error) { return msgpack.Marshal(v) }

func decode(b []byte, v interface{}) error { return msgpack.Unmarshal(b, v) }
