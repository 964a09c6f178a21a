package objpack

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lk2023060901/objpack-go/pkg/metrics"
)

const tracerName = "objpack"

var (
	defaultEncoder = NewEncoder()
	defaultDecoder = NewDecoder()
)

// Compress 使用默认 Encoder 编码 v。
func Compress(ctx context.Context, v Value) ([]byte, error) {
	return defaultEncoder.Encode(ctx, v)
}

// CompressTo 使用默认 Encoder 编码 v 并写入 w。
func CompressTo(ctx context.Context, w io.Writer, v Value) (int64, error) {
	return defaultEncoder.EncodeTo(ctx, w, v)
}

// Decompress 使用默认 Decoder 解码 data。
func Decompress(data []byte) (Value, error) {
	return defaultDecoder.Decode(context.Background(), data)
}

func observe(span trace.Span, op string, start time.Time, size int, err error) {
	defer span.End()
	metrics.CodecOpsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	metrics.CodecLatency.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	metrics.CodecStreamBytes.WithLabelValues(op).Observe(float64(size))
	span.SetAttributes(attribute.Int("objpack.size", size))
}
