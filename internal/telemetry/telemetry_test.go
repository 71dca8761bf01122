package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "caseforge", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("ClientAddr", func(t *testing.T) {
		attr := ClientAddr("192.168.1.100:12345")
		assert.Equal(t, AttrClientAddr, string(attr.Key))
		assert.Equal(t, "192.168.1.100:12345", attr.Value.AsString())
	})

	t.Run("JobID", func(t *testing.T) {
		attr := JobID(42)
		assert.Equal(t, AttrJobID, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("SourceFileID", func(t *testing.T) {
		attr := SourceFileID("src-123")
		assert.Equal(t, AttrSourceFileID, string(attr.Key))
		assert.Equal(t, "src-123", attr.Value.AsString())
	})

	t.Run("SourceSHA256", func(t *testing.T) {
		attr := SourceSHA256("abcd1234")
		assert.Equal(t, AttrSourceSHA256, string(attr.Key))
		assert.Equal(t, "abcd1234", attr.Value.AsString())
	})

	t.Run("ParserID", func(t *testing.T) {
		attr := ParserID("bank")
		assert.Equal(t, AttrParserID, string(attr.Key))
		assert.Equal(t, "bank", attr.Value.AsString())
	})

	t.Run("EventType", func(t *testing.T) {
		attr := EventType("BANK_WITHDRAW")
		assert.Equal(t, AttrEventType, string(attr.Key))
		assert.Equal(t, "BANK_WITHDRAW", attr.Value.AsString())
	})

	t.Run("LineNo", func(t *testing.T) {
		attr := LineNo(1024)
		assert.Equal(t, AttrLineNo, string(attr.Key))
		assert.Equal(t, int64(1024), attr.Value.AsInt64())
	})

	t.Run("LinesRead", func(t *testing.T) {
		attr := LinesRead(5000)
		assert.Equal(t, AttrLinesRead, string(attr.Key))
		assert.Equal(t, int64(5000), attr.Value.AsInt64())
	})

	t.Run("EventCount", func(t *testing.T) {
		attr := EventCount(17)
		assert.Equal(t, AttrEventCount, string(attr.Key))
		assert.Equal(t, int64(17), attr.Value.AsInt64())
	})

	t.Run("Quality", func(t *testing.T) {
		attr := Quality("ABSOLUTE")
		assert.Equal(t, AttrQuality, string(attr.Key))
		assert.Equal(t, "ABSOLUTE", attr.Value.AsString())
	})

	t.Run("UploadID", func(t *testing.T) {
		attr := UploadID("up-1")
		assert.Equal(t, AttrUploadID, string(attr.Key))
		assert.Equal(t, "up-1", attr.Value.AsString())
	})

	t.Run("ChunkIndex", func(t *testing.T) {
		attr := ChunkIndex(3)
		assert.Equal(t, AttrChunkIndex, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("UploadBytes", func(t *testing.T) {
		attr := UploadBytes(1048576)
		assert.Equal(t, AttrUploadBytes, string(attr.Key))
		assert.Equal(t, int64(1048576), attr.Value.AsInt64())
	})

	t.Run("RawBlockID", func(t *testing.T) {
		attr := RawBlockID("blk-1")
		assert.Equal(t, AttrRawBlockID, string(attr.Key))
		assert.Equal(t, "blk-1", attr.Value.AsString())
	})

	t.Run("BlobURI", func(t *testing.T) {
		attr := BlobURI("/objects/raw-blocks/a/b.zst")
		assert.Equal(t, AttrBlobURI, string(attr.Key))
		assert.Equal(t, "/objects/raw-blocks/a/b.zst", attr.Value.AsString())
	})

	t.Run("SearchQuery", func(t *testing.T) {
		attr := SearchQuery("john")
		assert.Equal(t, AttrSearchQuery, string(attr.Key))
		assert.Equal(t, "john", attr.Value.AsString())
	})

	t.Run("ResultCount", func(t *testing.T) {
		attr := ResultCount(7)
		assert.Equal(t, AttrResultCount, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})
}

func TestStartJobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartJobSpan(ctx, 1, "src-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartJobSpan(ctx, 2, "src-2", SourceSHA256("ff"), LinesRead(100))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartUploadSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartUploadSpan(ctx, "finalize", "up-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartUploadSpan(ctx, "chunk", "up-2", ChunkIndex(0), UploadBytes(4096))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartStoreSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartStoreSpan(ctx, "insert_event")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartStoreSpan(ctx, "search", SearchQuery("ana"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
