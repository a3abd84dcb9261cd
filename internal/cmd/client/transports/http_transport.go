package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Credentials are sent with every request when set.
type Credentials struct {
	User     string
	Password string
	AdminKey string
}

var _ SyncTransport = (*HTTPTransport)(nil)

// HTTPTransport implements SyncTransport over the REST gateway.
type HTTPTransport struct {
	baseURL string
	creds   Credentials
	client  *http.Client
}

// NewHTTPTransport constructs a transport for the server at baseURL.
func NewHTTPTransport(baseURL string, creds Credentials) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	id      *Identity
	headers map[string]string
	out     any
	// accept lists extra statuses that are not errors.
	accept []int
}

func (t *HTTPTransport) do(ctx context.Context, c call) (*http.Response, error) {
	var rd io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	u := t.baseURL + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, c.method, u, rd)
	if err != nil {
		return nil, err
	}
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.creds.User != "" || t.creds.Password != "" {
		req.SetBasicAuth(t.creds.User, t.creds.Password)
	}
	if t.creds.AdminKey != "" {
		req.Header.Set("X-FEEDER-ADMIN-KEY", t.creds.AdminKey)
	}
	if c.id != nil {
		req.Header.Set("X-FEEDER-ID", c.id.SyncCode)
		if c.id.DeviceID != 0 {
			req.Header.Set("X-FEEDER-DEVICE-ID", strconv.FormatInt(c.id.DeviceID, 10))
		}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && !accepted(resp.StatusCode, c.accept) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if resp.StatusCode == http.StatusOK && c.out != nil {
		if err := json.NewDecoder(resp.Body).Decode(c.out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func accepted(code int, extra []int) bool {
	for _, c := range extra {
		if c == code {
			return true
		}
	}
	return false
}

type joinBody struct {
	DeviceName string `json:"deviceName"`
}

// Create allocates a new chain and registers deviceName on it.
func (t *HTTPTransport) Create(ctx context.Context, deviceName string) (Identity, error) {
	var out Identity
	_, err := t.do(ctx, call{method: http.MethodPost, path: "/api/create", body: joinBody{deviceName}, out: &out})
	return out, err
}

// Join registers deviceName on an existing chain.
func (t *HTTPTransport) Join(ctx context.Context, syncCode, deviceName string) (Identity, error) {
	var out Identity
	_, err := t.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/join",
		body:   joinBody{deviceName},
		id:     &Identity{SyncCode: syncCode},
		out:    &out,
	})
	return out, err
}

type devicesBody struct {
	Devices []Device `json:"devices"`
}

// Devices lists the chain's devices in join order.
func (t *HTTPTransport) Devices(ctx context.Context, id Identity) ([]Device, error) {
	var out devicesBody
	_, err := t.do(ctx, call{method: http.MethodGet, path: "/api/devices", id: &id, out: &out})
	return out.Devices, err
}

// RemoveDevice unregisters deviceID and returns the remaining devices.
func (t *HTTPTransport) RemoveDevice(ctx context.Context, id Identity, deviceID int64) ([]Device, error) {
	var out devicesBody
	_, err := t.do(ctx, call{
		method: http.MethodDelete,
		path:   "/api/devices/" + strconv.FormatInt(deviceID, 10),
		id:     &id,
		out:    &out,
	})
	return out.Devices, err
}

func sinceQuery(since int64) url.Values {
	return url.Values{"since": []string{strconv.FormatInt(since, 10)}}
}

// ReadMarks returns plain marks newer than since.
func (t *HTTPTransport) ReadMarks(ctx context.Context, id Identity, since int64) ([]ReadMark, error) {
	var out struct {
		ReadMarks []ReadMark `json:"readMarks"`
	}
	_, err := t.do(ctx, call{method: http.MethodGet, path: "/api/readmark", query: sinceQuery(since), id: &id, out: &out})
	return out.ReadMarks, err
}

// EncryptedReadMarks returns encrypted marks newer than since.
func (t *HTTPTransport) EncryptedReadMarks(ctx context.Context, id Identity, since int64) ([]EncryptedReadMark, error) {
	var out struct {
		ReadMarks []EncryptedReadMark `json:"readMarks"`
	}
	_, err := t.do(ctx, call{method: http.MethodGet, path: "/api/ereadmark", query: sinceQuery(since), id: &id, out: &out})
	return out.ReadMarks, err
}

type timestampBody struct {
	Timestamp int64 `json:"timestamp"`
}

// SendReadMarks appends plain marks and returns the last timestamp.
func (t *HTTPTransport) SendReadMarks(ctx context.Context, id Identity, items []ReadMarkItem) (int64, error) {
	var out timestampBody
	body := struct {
		Items []ReadMarkItem `json:"items"`
	}{Items: items}
	_, err := t.do(ctx, call{method: http.MethodPost, path: "/api/readmark", body: body, id: &id, out: &out})
	return out.Timestamp, err
}

// SendEncryptedReadMarks appends opaque marks and returns the last timestamp.
func (t *HTTPTransport) SendEncryptedReadMarks(ctx context.Context, id Identity, payloads []string) (int64, error) {
	type item struct {
		Encrypted string `json:"encrypted"`
	}
	items := make([]item, len(payloads))
	for i, p := range payloads {
		items[i] = item{Encrypted: p}
	}
	body := struct {
		Items []item `json:"items"`
	}{Items: items}
	var out timestampBody
	_, err := t.do(ctx, call{method: http.MethodPost, path: "/api/ereadmark", body: body, id: &id, out: &out})
	return out.Timestamp, err
}

// GetFeeds fetches the feeds blob, conditionally when ifNoneMatch is set.
func (t *HTTPTransport) GetFeeds(ctx context.Context, id Identity, ifNoneMatch string) (Feeds, error) {
	var body struct {
		Hash      int64  `json:"hash"`
		Encrypted string `json:"encrypted"`
	}
	c := call{
		method: http.MethodGet,
		path:   "/api/feeds",
		id:     &id,
		out:    &body,
		accept: []int{http.StatusNoContent, http.StatusNotModified},
	}
	if ifNoneMatch != "" {
		c.headers = map[string]string{"If-None-Match": ifNoneMatch}
	}
	resp, err := t.do(ctx, c)
	if err != nil {
		return Feeds{}, err
	}
	out := Feeds{ETag: resp.Header.Get("ETag")}
	switch resp.StatusCode {
	case http.StatusNoContent:
		out.Status = "empty"
	case http.StatusNotModified:
		out.Status = "not_modified"
	default:
		out.Status = "ok"
		out.Hash, out.Encrypted = body.Hash, body.Encrypted
	}
	return out, nil
}

// PushFeeds replaces the feeds blob and returns the stored hash.
func (t *HTTPTransport) PushFeeds(ctx context.Context, id Identity, ifMatch string, hash int64, encrypted string) (int64, error) {
	body := struct {
		ContentHash int64  `json:"contentHash"`
		Encrypted   string `json:"encrypted"`
	}{hash, encrypted}
	var out struct {
		Hash int64 `json:"hash"`
	}
	c := call{method: http.MethodPost, path: "/api/feeds", body: body, id: &id, out: &out}
	if ifMatch != "" {
		c.headers = map[string]string{"If-Match": ifMatch}
	}
	_, err := t.do(ctx, c)
	return out.Hash, err
}

// Sweep runs a GC pass on the server.
func (t *HTTPTransport) Sweep(ctx context.Context) (SweepResult, error) {
	var out SweepResult
	_, err := t.do(ctx, call{method: http.MethodPost, path: "/api/admin/gc-sweep", out: &out})
	return out, err
}

// ChainInfo fetches the admin diagnostic for syncCode.
func (t *HTTPTransport) ChainInfo(ctx context.Context, syncCode string) (ChainInfo, error) {
	var out ChainInfo
	_, err := t.do(ctx, call{method: http.MethodGet, path: "/api/admin/chains/" + url.PathEscape(syncCode), out: &out})
	return out, err
}
