package services

import "context"

type contextKey int

const (
	itemIDKey contextKey = iota
	stageKey
	requestIDKey
	imageKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithItemID tags ctx with a track row id.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext returns the track row id, if any.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithStage tags ctx with the pipeline stage name. Blank names are ignored.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID tags ctx with the run correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

// WithImage tags ctx with the screenshot being scanned, relative to the
// input directory.
func WithImage(ctx context.Context, rel string) context.Context {
	return withString(ctx, imageKey, rel)
}

func ImageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, imageKey)
}
