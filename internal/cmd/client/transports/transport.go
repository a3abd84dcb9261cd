// Package transports provides the transport used by the feedsync CLI.
package transports

import (
	"context"
	"fmt"
)

// Identity names a device on a chain.
type Identity struct {
	SyncCode string `json:"syncCode"`
	DeviceID int64  `json:"deviceId"`
}

// Device is one entry of a chain's device list.
type Device struct {
	DeviceID   int64  `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// ReadMark is a plain read mark as stored by the server.
type ReadMark struct {
	Timestamp   int64  `json:"timestamp"`
	FeedURL     string `json:"feedUrl"`
	ArticleGUID string `json:"articleGuid"`
}

// EncryptedReadMark is an opaque read mark as stored by the server.
type EncryptedReadMark struct {
	Timestamp int64  `json:"timestamp"`
	Encrypted string `json:"encrypted"`
}

// ReadMarkItem is one plain mark to send.
type ReadMarkItem struct {
	FeedURL     string `json:"feedUrl"`
	ArticleGUID string `json:"articleGuid"`
}

// Feeds is the result of fetching the feeds blob.
type Feeds struct {
	// Status is "ok", "empty" or "not_modified".
	Status    string `json:"status"`
	Hash      int64  `json:"hash,omitempty"`
	Encrypted string `json:"encrypted,omitempty"`
	ETag      string `json:"etag,omitempty"`
}

// SweepResult summarizes a GC pass.
type SweepResult struct {
	Checked int `json:"checked"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// ChainInfo is the admin diagnostic for one chain.
type ChainInfo struct {
	SyncCode            string `json:"syncCode"`
	Devices             int    `json:"devices"`
	EligibleForDeletion bool   `json:"eligibleForDeletion"`
}

// StatusError is a non-success response from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// SyncTransport abstracts the transport used by the CLI.
type SyncTransport interface {
	Create(ctx context.Context, deviceName string) (Identity, error)
	Join(ctx context.Context, syncCode, deviceName string) (Identity, error)
	Devices(ctx context.Context, id Identity) ([]Device, error)
	RemoveDevice(ctx context.Context, id Identity, deviceID int64) ([]Device, error)
	ReadMarks(ctx context.Context, id Identity, since int64) ([]ReadMark, error)
	EncryptedReadMarks(ctx context.Context, id Identity, since int64) ([]EncryptedReadMark, error)
	SendReadMarks(ctx context.Context, id Identity, items []ReadMarkItem) (int64, error)
	SendEncryptedReadMarks(ctx context.Context, id Identity, payloads []string) (int64, error)
	GetFeeds(ctx context.Context, id Identity, ifNoneMatch string) (Feeds, error)
	PushFeeds(ctx context.Context, id Identity, ifMatch string, hash int64, encrypted string) (int64, error)
	Sweep(ctx context.Context) (SweepResult, error)
	ChainInfo(ctx context.Context, syncCode string) (ChainInfo, error)
}
