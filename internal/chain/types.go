package chain

import "time"

// Defaults for Options.
const (
	DefaultMaxReadMarks = 900
	DefaultPruneBatch   = 128
	DefaultRetention    = 90 * 24 * time.Hour
)

// Options tune every chain owned by a Registry.
type Options struct {
	// MaxReadMarks bounds the read-mark log and the size of one append.
	MaxReadMarks int
	// PruneBatch caps the keys removed by one store delete while pruning.
	PruneBatch int
	// Retention is the inactivity window after which a chain may be deleted.
	Retention time.Duration
	// Now returns wall-clock milliseconds. Nil uses NowMs.
	Now func() int64
	// NewDeviceID generates device ids. Nil uses id.NewDeviceID.
	NewDeviceID func() (int64, error)
}

func (o Options) withDefaults() Options {
	if o.MaxReadMarks <= 0 {
		o.MaxReadMarks = DefaultMaxReadMarks
	}
	if o.PruneBatch <= 0 {
		o.PruneBatch = DefaultPruneBatch
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	if o.Now == nil {
		o.Now = NowMs
	}
	return o
}

// JoinResult identifies a newly registered device.
type JoinResult struct {
	SyncCode string
	DeviceID int64
}

// Device is one registry entry.
type Device struct {
	ID   int64
	Name string
}

// DeviceList is the result of ListDevices. When NotModified is set Devices
// is nil.
type DeviceList struct {
	Devices     []Device
	ETag        string
	NotModified bool
}

// ReadMarkInput is one mark to append: a PlainMark or an EncryptedMark.
type ReadMarkInput interface {
	readMark() markRecord
}

// PlainMark identifies a read article in clear text.
type PlainMark struct {
	FeedURL     string
	ArticleGUID string
}

func (m PlainMark) readMark() markRecord {
	return markRecord{FeedURL: m.FeedURL, ArticleGUID: m.ArticleGUID}
}

// EncryptedMark carries an opaque client-encrypted payload.
type EncryptedMark struct {
	Encrypted string
}

func (m EncryptedMark) readMark() markRecord { return markRecord{Encrypted: m.Encrypted} }

// ReadMark is a stored mark as read back from the log.
type ReadMark struct {
	Timestamp   int64
	FeedURL     string
	ArticleGUID string
	Encrypted   string
}

// PlainReadMark is the plain view of a stored mark.
type PlainReadMark struct {
	Timestamp   int64
	FeedURL     string
	ArticleGUID string
}

// EncryptedReadMark is the encrypted view of a stored mark.
type EncryptedReadMark struct {
	Timestamp int64
	Encrypted string
}

// ReadMarkList is the result of ListReadMarksSince.
type ReadMarkList struct {
	Marks       []ReadMark
	ETag        string
	NotModified bool
}

// Plain projects every mark onto the plain shape.
func (l ReadMarkList) Plain() []PlainReadMark {
	out := make([]PlainReadMark, len(l.Marks))
	for i, m := range l.Marks {
		out[i] = PlainReadMark{Timestamp: m.Timestamp, FeedURL: m.FeedURL, ArticleGUID: m.ArticleGUID}
	}
	return out
}

// Encrypted projects every mark onto the encrypted shape.
func (l ReadMarkList) Encrypted() []EncryptedReadMark {
	out := make([]EncryptedReadMark, len(l.Marks))
	for i, m := range l.Marks {
		out[i] = EncryptedReadMark{Timestamp: m.Timestamp, Encrypted: m.Encrypted}
	}
	return out
}

// Feeds is the replicated subscription blob.
type Feeds struct {
	ContentHash int64
	Encrypted   string
}

// FeedsStatus classifies a GetFeeds result.
type FeedsStatus int

const (
	FeedsOK FeedsStatus = iota
	FeedsNotModified
	// FeedsEmpty means no blob has ever been stored.
	FeedsEmpty
)

// FeedsResult is the result of GetFeeds. Feeds is only set for FeedsOK.
type FeedsResult struct {
	Status FeedsStatus
	Feeds  Feeds
	ETag   string
}

// DeviceCount is a read-only diagnostic.
type DeviceCount struct {
	Count               int
	EligibleForDeletion bool
}
