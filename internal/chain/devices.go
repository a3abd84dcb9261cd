package chain

import (
	"context"
	"fmt"

	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Join registers a new device under a random id. A generated id that is
// already taken overwrites the existing device's name.
func (c *Chain) Join(ctx context.Context, deviceName string) (JoinResult, error) {
	if err := c.load(ctx); err != nil {
		return JoinResult{}, err
	}
	gen := c.opts.NewDeviceID
	if gen == nil {
		gen = id.NewDeviceID
	}
	deviceID, err := gen()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generate device id: %w", err)
	}

	next := make([]Device, 0, len(c.devices)+1)
	replaced := false
	for _, d := range c.devices {
		if d.ID == deviceID {
			d.Name = deviceName
			replaced = true
		}
		next = append(next, d)
	}
	if !replaced {
		next = append(next, Device{ID: deviceID, Name: deviceName})
	}
	if err := c.saveDevices(ctx, next); err != nil {
		return JoinResult{}, err
	}
	c.logger.Info("device joined", logpkg.Int64("device_id", deviceID), logpkg.Bool("replaced", replaced))
	return JoinResult{SyncCode: c.hex, DeviceID: deviceID}, nil
}

// RemoveDevice unregisters deviceID and reports whether it was registered.
func (c *Chain) RemoveDevice(ctx context.Context, deviceID int64) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	next := make([]Device, 0, len(c.devices))
	for _, d := range c.devices {
		if d.ID != deviceID {
			next = append(next, d)
		}
	}
	if len(next) == len(c.devices) {
		return false, nil
	}
	if err := c.saveDevices(ctx, next); err != nil {
		return false, err
	}
	c.logger.Info("device removed", logpkg.Int64("device_id", deviceID), logpkg.Int("remaining", len(next)))
	return true, nil
}

// ListDevices returns the registry in join order, or NotModified when
// ifNoneMatch matches the current device token.
func (c *Chain) ListDevices(ctx context.Context, ifNoneMatch string) (DeviceList, error) {
	if err := c.load(ctx); err != nil {
		return DeviceList{}, err
	}
	etag := c.devRev.ETag()
	if ifNoneMatch != "" && MatchETag(ifNoneMatch, etag) {
		return DeviceList{ETag: etag, NotModified: true}, nil
	}
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return DeviceList{Devices: out, ETag: etag}, nil
}

// IsRegistered reports whether deviceID is in the registry.
func (c *Chain) IsRegistered(ctx context.Context, deviceID int64) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	for _, d := range c.devices {
		if d.ID == deviceID {
			return true, nil
		}
	}
	return false, nil
}

// Authorize returns ErrNotRegistered unless deviceID is registered.
func (c *Chain) Authorize(ctx context.Context, deviceID int64) error {
	ok, err := c.IsRegistered(ctx, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotRegistered, deviceID)
	}
	return nil
}

// saveDevices persists the full registry and swaps it in only on success.
func (c *Chain) saveDevices(ctx context.Context, devices []Device) error {
	recs := make([]deviceRecord, len(devices))
	for i, d := range devices {
		recs[i] = deviceRecord{ID: d.ID, Name: d.Name}
	}
	raw, err := encode(recs)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, keyDevices, raw); err != nil {
		return fmt.Errorf("write devices: %w", err)
	}
	c.devices = devices
	c.devRev.bump()
	return nil
}
