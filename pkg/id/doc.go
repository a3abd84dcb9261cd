// Package id generates and parses the identifiers used by feedsync.
//
// # Chain IDs
//
// A ChainID is 32 random bytes. Its hex form is the sync code that devices
// share out of band to join the same chain, so it doubles as a bearer
// secret: it is generated from crypto/rand and never derived from time.
//
// # Device IDs
//
// Device IDs are random integers below 2^53 so they stay exact when a
// JavaScript client decodes them as numbers.
//
// Usage
//
//	c, _ := id.New()
//	code := c.String()      // 64 lowercase hex chars
//	back, err := id.Parse(code)
package id
