// Package badgerstore implements storage.Backend on Badger. It is the
// alternative to the Pebble backend and the one used in memory by tests.
package badgerstore
