package storage

import (
	"context"
)

// Entry is a key/value pair returned by List. Key is relative to the scope.
type Entry struct {
	Key   string
	Value []byte
}

// ListOptions selects a contiguous ascending run of keys.
type ListOptions struct {
	// Prefix restricts results to keys with this prefix.
	Prefix string
	// Start is an inclusive lower bound; it is ignored when it sorts before
	// Prefix.
	Start string
	// Limit caps the number of entries; 0 means no limit.
	Limit int
}

// Store is the per-chain view used by the chain package.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes all keys in one atomic batch.
	Delete(ctx context.Context, keys ...string) error
	// Write applies a batch whose keys are relative to the scope.
	Write(ctx context.Context, b *Batch) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	// DeleteAll removes every key in the scope.
	DeleteAll(ctx context.Context) error
}

type scoped struct {
	backend Backend
	prefix  []byte
}

// Scoped returns a Store whose keys live under prefix in backend.
func Scoped(backend Backend, prefix string) Store {
	return &scoped{backend: backend, prefix: []byte(prefix)}
}

func (s *scoped) key(k string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Get(ctx, s.key(key))
}

func (s *scoped) Put(ctx context.Context, key string, value []byte) error {
	var b Batch
	b.Put(s.key(key), value)
	return s.backend.Apply(ctx, &b)
}

func (s *scoped) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	var b Batch
	for _, k := range keys {
		b.Delete(s.key(k))
	}
	return s.backend.Apply(ctx, &b)
}

func (s *scoped) Write(ctx context.Context, in *Batch) error {
	if in == nil || in.Len() == 0 {
		return nil
	}
	out := Batch{Ops: make([]Op, len(in.Ops))}
	for i, op := range in.Ops {
		out.Ops[i] = Op{Key: s.key(string(op.Key)), Value: op.Value, Delete: op.Delete}
	}
	return s.backend.Apply(ctx, &out)
}

func (s *scoped) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	lower := s.key(opts.Prefix)
	upper := PrefixEnd(lower)
	if opts.Start > opts.Prefix {
		lower = s.key(opts.Start)
	}
	var out []Entry
	err := s.backend.Scan(ctx, lower, upper, opts.Limit, func(k, v []byte) error {
		out = append(out, Entry{
			Key:   string(k[len(s.prefix):]),
			Value: append([]byte(nil), v...),
		})
		return nil
	})
	return out, err
}

func (s *scoped) DeleteAll(ctx context.Context) error {
	return s.backend.DeleteRange(ctx, s.prefix, PrefixEnd(s.prefix))
}
