package controllers

// Wire types shared with feeder clients. Field names are part of the
// protocol.

// joinReq is the body of /api/create and /api/join.
type joinReq struct {
	DeviceName string `json:"deviceName"`
}

// joinResp identifies the registered device.
type joinResp struct {
	SyncCode string `json:"syncCode"`
	DeviceID int64  `json:"deviceId"`
}

type deviceJSON struct {
	DeviceID   int64  `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// deviceListResp lists devices in join order.
type deviceListResp struct {
	Devices []deviceJSON `json:"devices"`
}

type readMarkItem struct {
	FeedURL     string `json:"feedUrl"`
	ArticleGUID string `json:"articleGuid"`
}

// sendReadMarksReq is the body of POST /api/readmark.
type sendReadMarksReq struct {
	Items []readMarkItem `json:"items"`
}

type encryptedReadMarkItem struct {
	Encrypted string `json:"encrypted"`
}

// sendEncryptedReadMarksReq is the body of POST /api/ereadmark.
type sendEncryptedReadMarksReq struct {
	Items []encryptedReadMarkItem `json:"items"`
}

// timestampResp carries the last timestamp allocated by an append.
type timestampResp struct {
	Timestamp int64 `json:"timestamp"`
}

type readMarkJSON struct {
	Timestamp   int64  `json:"timestamp"`
	FeedURL     string `json:"feedUrl"`
	ArticleGUID string `json:"articleGuid"`
}

type readMarksResp struct {
	ReadMarks []readMarkJSON `json:"readMarks"`
}

type encryptedReadMarkJSON struct {
	Timestamp int64  `json:"timestamp"`
	Encrypted string `json:"encrypted"`
}

type encryptedReadMarksResp struct {
	ReadMarks []encryptedReadMarkJSON `json:"readMarks"`
}

// feedsResp is the stored blob as returned by GET /api/feeds.
type feedsResp struct {
	Hash      int64  `json:"hash"`
	Encrypted string `json:"encrypted"`
}

// updateFeedsReq is the body of POST /api/feeds.
type updateFeedsReq struct {
	ContentHash int64  `json:"contentHash"`
	Encrypted   string `json:"encrypted"`
}

type updateFeedsResp struct {
	Hash int64 `json:"hash"`
}

// sweepResp summarizes a manual GC pass.
type sweepResp struct {
	Checked int `json:"checked"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// chainInfoResp is the admin diagnostic for one chain.
type chainInfoResp struct {
	SyncCode            string `json:"syncCode"`
	Devices             int    `json:"devices"`
	EligibleForDeletion bool   `json:"eligibleForDeletion"`
}
