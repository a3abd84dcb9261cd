package log

import (
	"context"
	"time"
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

func Str(key, value string) Field             { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Duration records d as a string such as "1.5s".
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.String()}
}

// Err records err under the "error" key. A nil error records nil.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
func Operation(name string) Field { return Field{Key: OperationKey, Value: name} }
func RequestID(id string) Field   { return Field{Key: RequestIDKey, Value: id} }

// ContextWithComponent stores a component name that WithContext picks up.
func ContextWithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKey(ComponentKey), name)
}

// ContextWithOperation stores an operation name that WithContext picks up.
func ContextWithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKey(OperationKey), name)
}
