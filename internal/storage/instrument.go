package storage

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Observer receives one call per storage operation.
type Observer interface {
	Observe(op string, bytes int64, err error, dur time.Duration)
}

type instrumented struct {
	next Store
	obs  Observer
}

// Instrument wraps s so every Put is traced and reported to obs.
// A nil obs only adds tracing.
func Instrument(s Store, obs Observer) Store {
	return &instrumented{next: s, obs: obs}
}

func (i *instrumented) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	ctx, span := otel.Tracer("picbed/storage").Start(ctx, "storage.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("object.key", key),
		attribute.Int64("object.size", size),
		attribute.String("object.content_type", contentType),
	)

	start := time.Now()
	err := i.next.Put(ctx, key, reader, size, contentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if i.obs != nil {
		i.obs.Observe("put", size, err, time.Since(start))
	}
	return err
}
