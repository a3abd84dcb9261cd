package chain

import (
	"context"
	"fmt"
)

// IsEligibleForDeletion reports whether the chain may be wiped: it has no
// devices, or both its creation and its newest read mark are older than
// Retention. A chain without marks counts as having an old one.
func (c *Chain) IsEligibleForDeletion(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	return c.eligible(), nil
}

func (c *Chain) eligible() bool {
	if len(c.devices) == 0 {
		return true
	}
	now := c.opts.Now()
	window := c.opts.Retention.Milliseconds()
	if now-c.createdAt <= window {
		return false
	}
	last, ok := c.lastMarkAt()
	return !ok || now-last > window
}

// SelfDestructIfEligible wipes every key of the chain and its index entry
// when it is eligible. Afterwards the chain behaves as if it never existed.
func (c *Chain) SelfDestructIfEligible(ctx context.Context) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	if !c.eligible() {
		return false, nil
	}
	if err := c.store.DeleteAll(ctx); err != nil {
		return false, fmt.Errorf("wipe chain: %w", err)
	}
	c.reset()
	if err := c.index.Delete(ctx, c.hex); err != nil {
		return true, fmt.Errorf("drop index entry: %w", err)
	}
	c.logger.Info("chain deleted")
	return true, nil
}

// DeviceCount reports the registry size and deletion eligibility.
func (c *Chain) DeviceCount(ctx context.Context) (DeviceCount, error) {
	if err := c.load(ctx); err != nil {
		return DeviceCount{}, err
	}
	return DeviceCount{Count: len(c.devices), EligibleForDeletion: c.eligible()}, nil
}
